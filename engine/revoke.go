package engine

import (
	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf/storage/model"
)

// RevokeTicket revokes the ticket with the passed id, i.e. deletes it and
// records a revocation. Revoking an unknown or already revoked ticket is a
// no-op; the returned bool reports whether a ticket was revoked.
func (e *Engine) RevokeTicket(id string) (bool, error) {
	var revoked bool
	err := e.backends.InTransaction(
		func(tx model.Backends) (err error) {
			revoked, err = e.revokeTicket(tx, id)
			return
		},
	)
	return revoked, err
}

func (e *Engine) revokeTicket(tx model.Backends, id string) (bool, error) {
	t, err := tx.Tickets.Get(id)
	if err != nil {
		if model.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if err = tx.Tickets.Delete(id); err != nil {
		if model.IsNotFound(err) {
			// revoked concurrently
			return false, nil
		}
		return false, err
	}
	if err = tx.Revocations.Create(&model.RevocationTicket{Ticket: *t}); err != nil {
		if !model.IsAlreadyExists(err) {
			return false, err
		}
	}
	log.WithFields(
		log.Fields{
			"ticket": id,
			"cam":    t.CamIdentifier,
			"server": t.ServerHost,
		},
	).Info("revoked ticket")
	return true, nil
}
