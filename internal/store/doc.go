// Package store defines the credential store interface the account service
// depends on, the errors every implementation reports, and the transaction
// helper shared by the SQL backends in internal/platform.
package store
