package dcaf

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf/engine"
	"github.com/dcaf-go/dcaf/update"
	"github.com/dcaf-go/dcaf/wire"
)

// Errors of the CAM forwarding path
var (
	ErrUpstreamTimeout     = errors.New("sam did not answer in time")
	ErrUpstreamUnavailable = errors.New("sam not reachable")
)

// statusFor maps an error to the http status code of the response
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, engine.ErrMalformedInput),
		errors.Is(err, wire.ErrMalformed),
		errors.Is(err, engine.ErrUnknownPrincipal),
		errors.Is(err, update.ErrSignatureInvalid):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrUpstreamTimeout):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, ErrUpstreamUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// handleError is the fiber.ErrorHandler of the protocol servers. Internal
// errors are logged and not exposed to the peer.
func handleError(ctx *fiber.Ctx, err error) error {
	status := statusFor(err)
	entry := log.WithFields(
		log.Fields{
			"path":   ctx.Path(),
			"peer":   ctx.IP(),
			"status": status,
		},
	).WithError(err)
	description := err.Error()
	if status >= fiber.StatusInternalServerError {
		entry.Error("request failed")
		description = http.StatusText(status)
	} else {
		entry.Info("request rejected")
	}
	return ctx.Status(status).JSON(
		fiber.Map{
			"error":             errorCode(status),
			"error_description": description,
		},
	)
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "invalid_request"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusServiceUnavailable:
		return "temporarily_unavailable"
	default:
		return "server_error"
	}
}
