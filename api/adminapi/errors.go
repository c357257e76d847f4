package adminapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf/engine"
	"github.com/dcaf-go/dcaf/storage/model"
)

// Error is the body of an error response
type Error struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ErrorInvalidRequest returns an invalid_request Error
func ErrorInvalidRequest(description string) Error {
	return Error{
		Error:            "invalid_request",
		ErrorDescription: description,
	}
}

// ErrorNotFound returns a not_found Error
func ErrorNotFound(description string) Error {
	return Error{
		Error:            "not_found",
		ErrorDescription: description,
	}
}

// ErrorConflict returns a conflict Error
func ErrorConflict(description string) Error {
	return Error{
		Error:            "conflict",
		ErrorDescription: description,
	}
}

// ErrorServerError returns a server_error Error
func ErrorServerError(description string) Error {
	return Error{
		Error:            "server_error",
		ErrorDescription: description,
	}
}

// writeError writes the response for an error of the engine or the storage
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case model.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(ErrorNotFound(err.Error()))
	case model.IsAlreadyExists(err):
		return c.Status(fiber.StatusConflict).JSON(ErrorConflict(err.Error()))
	case errors.Is(err, engine.ErrMalformedInput), errors.Is(err, engine.ErrNoSupportedMethods):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest(err.Error()))
	default:
		log.WithError(err).WithField("path", c.Path()).Error("admin request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
	}
}

// boolQuery parses a boolean query parameter; absent means false
func boolQuery(c *fiber.Ctx, key string) bool {
	return c.QueryBool(key, false)
}
