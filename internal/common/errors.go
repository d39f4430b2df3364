package common

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound       = errors.New("record not found")
	ErrEditConflict         = errors.New("unable to update the record due to an edit conflict")
	ErrDuplicateSlug        = errors.New("duplicate slug")
	ErrForbidden            = errors.New("you are not allowed to perform this action")
	ErrUnauthorized         = errors.New("unauthorized access")
	ErrAlreadyAuthenticated = errors.New("you are already signed in")
	ErrNotSignedIn          = errors.New("you are not signed in")
	ErrRateLimited          = errors.New("too many attempts, try again later")
)

// StorageError reports a persistence failure in the middle of a multi-step operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapStorage wraps err in a StorageError unless it is nil or one of the domain sentinels,
// which callers are expected to match on directly.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}

	var storageErr *StorageError
	var validationErr ValidationError
	switch {
	case errors.As(err, &storageErr),
		errors.As(err, &validationErr),
		errors.Is(err, ErrRecordNotFound),
		errors.Is(err, ErrEditConflict),
		errors.Is(err, ErrDuplicateSlug),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrUnauthorized):
		return err
	default:
		return &StorageError{Op: op, Err: err}
	}
}
