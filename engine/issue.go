package engine

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf/mac"
	"github.com/dcaf-go/dcaf/storage"
	"github.com/dcaf-go/dcaf/storage/model"
	"github.com/dcaf-go/dcaf/update"
	"github.com/dcaf-go/dcaf/wire"
)

// Authorize processes a ticket request of the CAM with the passed identity.
// It returns the issued ticket without the bookkeeping fields. If the CAM is
// not entitled to any of the requested authorizations, it returns nil and no
// error.
func (e *Engine) Authorize(ctx context.Context, camID string, req wire.TicketRequestMessage) (
	*wire.TicketGrantMessage, error,
) {
	if len(req.SAI) == 0 {
		return nil, errors.Wrap(ErrMalformedInput, "no authorizations requested")
	}
	cam, err := e.backends.Cams.Get(camID)
	if err != nil {
		if model.IsNotFound(err) {
			return nil, errors.Wrapf(ErrUnknownPrincipal, "unknown cam %s", camID)
		}
		return nil, err
	}
	logger := log.WithField("cam", cam.Identifier)
	now := e.now()

	var bundle *update.Bundle
	var updateHash string
	if req.IsUpdateRequest() {
		bundle, updateHash, err = e.checkUpdate(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	rules, err := e.backends.Rules.ListByCam(cam.Identifier)
	if err != nil {
		return nil, err
	}
	sai := FilterPermissions(cam.Identifier, rules, req.SAI, bundle, now)
	if len(sai) == 0 {
		logger.WithField("requested", req.SAI).Info("no entitlement for requested authorizations")
		return nil, nil
	}

	lifetime, err := storage.GetTicketLifetime(e.backends.Settings)
	if err != nil {
		return nil, err
	}
	method, err := storage.GetMacMethod(e.backends.Settings)
	if err != nil {
		return nil, err
	}
	face := wire.NewFace(sai, req.Timestamp, lifetime, method.String(), updateHash, now)

	server := sai[0].Host
	key, err := e.serverKey(ctx, server)
	if err != nil {
		return nil, err
	}
	verifier, err := mac.FaceMAC([]byte(key), face)
	if err != nil {
		return nil, err
	}

	grant := wire.TicketGrantMessage{
		ID:       e.newID(),
		Face:     face,
		Verifier: verifier,
		Cam:      cam.Identifier,
		Server:   server,
	}
	if err = e.backends.Tickets.Create(model.TicketFromGrant(grant)); err != nil {
		return nil, errors.Wrap(err, "could not store ticket")
	}
	logger.WithFields(
		log.Fields{
			"ticket":      grant.ID,
			"sai":         sai,
			"valid_until": face.ExpiresAt(),
		},
	).Info("issued ticket")

	stripped := grant.Stripped()
	return &stripped, nil
}

// checkUpdate verifies the update attribute bundle of req and returns it
// together with its hash encrypted for the server of the first requested
// authorization
func (e *Engine) checkUpdate(ctx context.Context, req wire.TicketRequestMessage) (*update.Bundle, string, error) {
	if e.verifier == nil {
		return nil, "", errors.Wrap(update.ErrSignatureInvalid, "no update key configured")
	}
	bundle, err := e.verifier.Parse(req.UpdateAttributes, req.Signature)
	if err != nil {
		if errors.Is(err, update.ErrMalformedAttributes) {
			return nil, "", errors.Wrap(ErrMalformedInput, err.Error())
		}
		return nil, "", err
	}
	key, err := e.serverKey(ctx, req.SAI[0].Host)
	if err != nil {
		return nil, "", err
	}
	encrypted, err := update.EncryptHash(key, bundle.Hash)
	if err != nil {
		return nil, "", err
	}
	return bundle, encrypted, nil
}
