package errs

import "errors"

// StorageError is the single error kind raised by the persistence core.
//
// It covers driver faults (a failed query, a failed commit), transaction
// misuse (commit without begin) and business-rule write faults such as a
// missing record writer.
//
// Message is what callers and logs see; Err keeps the driver error, if any,
// so errors.Is / errors.As still reach pgconn.PgError and friends.
type StorageError struct {
	Message string
	Err     error
}

// NewStorageError builds a StorageError with an optional cause.
func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{
		Message: message,
		Err:     cause,
	}
}

func (e *StorageError) Error() string {
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is matches any *StorageError, mirroring HTTPError.Is.
func (e *StorageError) Is(target error) bool {
	_, ok := target.(*StorageError)
	return ok
}

// ErrStorage is a comparison target for errors.Is(err, errs.ErrStorage).
var ErrStorage = &StorageError{Message: "storage error"}

// ErrNotFound marks StorageErrors raised by mandatory-existence reads.
var ErrNotFound = errors.New("record not found")

// IsNotFound reports whether err is a mandatory-existence read failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
