package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// NotFoundError is returned by the stores when the requested entity does not
// exist
type NotFoundError string

func (e NotFoundError) Error() string {
	return string(e)
}

// NotFoundErrorFmt formats a NotFoundError
func NotFoundErrorFmt(format string, params ...any) NotFoundError {
	return NotFoundError(fmt.Sprintf(format, params...))
}

// AlreadyExistsError is returned by the stores when an entity with the same
// key is already stored
type AlreadyExistsError string

func (e AlreadyExistsError) Error() string {
	return string(e)
}

// AlreadyExistsErrorFmt formats an AlreadyExistsError
func AlreadyExistsErrorFmt(format string, params ...any) AlreadyExistsError {
	return AlreadyExistsError(fmt.Sprintf(format, params...))
}

// IsNotFound reports whether err or any error it wraps is a NotFoundError
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsAlreadyExists reports whether err or any error it wraps is an
// AlreadyExistsError
func IsAlreadyExists(err error) bool {
	var ae AlreadyExistsError
	return errors.As(err, &ae)
}
