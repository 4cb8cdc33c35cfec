package adherence

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing patient, prescription or record
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks a principal acting outside its patients
	ErrForbidden = errors.New("forbidden")
	// ErrAmbiguousUpsert is returned when a status change matches no record
	// and the caller did not ask for one to be created
	ErrAmbiguousUpsert = errors.New("unable to determine whether to create or update the adherence record")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func forbiddenError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
