// Package errs holds the error shapes the service returns: HTTPError and
// FieldError for API responses, StorageError for the persistence core.
package errs
