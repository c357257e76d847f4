package engine

import (
	"github.com/pkg/errors"

	"github.com/dcaf-go/dcaf/storage/model"
)

var (
	// ErrMalformedInput is returned for requests that cannot be processed
	// because of their content
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnknownPrincipal is returned if a CAM or server is not known
	ErrUnknownPrincipal = errors.New("unknown principal")
	// ErrMissingKey is returned if no pre-shared key is known for the server
	// a ticket is issued for
	ErrMissingKey = errors.New("no key for server")
	// ErrNoSupportedMethods is returned if a server access rule does not
	// grant any method the server supports on the resource
	ErrNoSupportedMethods = errors.New("no requested method is supported by the resource")
	// ErrResourceNotFound is returned if a server access rule names a
	// resource the server does not declare
	ErrResourceNotFound = model.NotFoundError("resource not found")
)
