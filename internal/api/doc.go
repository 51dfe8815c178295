// Package api exposes the account service over HTTP. Handlers decode and
// validate JSON requests, call service.AccountService, and translate its
// errors into status codes and client-safe messages. Nothing below this
// package knows about HTTP.
package api
