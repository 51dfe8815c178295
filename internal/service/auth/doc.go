// Package auth issues and validates the service's HMAC-signed access tokens,
// hashes and checks passwords, and resolves the account identity of an
// authenticated request.
package auth
