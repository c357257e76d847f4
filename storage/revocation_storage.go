package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dcaf-go/dcaf/storage/model"
)

// RevocationStorage is the GORM implementation of model.RevocationStore
type RevocationStorage struct {
	db *gorm.DB
}

// List returns all revocations
func (s *RevocationStorage) List() ([]model.RevocationTicket, error) {
	var rows []model.RevocationTicket
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "revocations: list failed")
	}
	return rows, nil
}

// Pending returns the revocations that were not delivered yet
func (s *RevocationStorage) Pending() ([]model.RevocationTicket, error) {
	var rows []model.RevocationTicket
	if err := s.db.Where("delivery_time = ?", 0).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "revocations: list failed")
	}
	return rows, nil
}

// Create stores a revocation
func (s *RevocationStorage) Create(revocation *model.RevocationTicket) error {
	if revocation.TicketID == "" {
		revocation.TicketID = revocation.Ticket.ID
	}
	if revocation.ServerHost == "" {
		revocation.ServerHost = revocation.Ticket.ServerHost
	}
	if err := s.db.Create(revocation).Error; err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsErrorFmt("ticket already revoked: %s", revocation.TicketID)
		}
		return errors.Wrap(err, "revocations: create failed")
	}
	return nil
}

// MarkDelivered sets the delivery time of the revocation of a ticket
func (s *RevocationStorage) MarkDelivered(ticketID string, at int64) error {
	res := s.db.Model(&model.RevocationTicket{}).Where("ticket_id = ?", ticketID).Update("delivery_time", at)
	if res.Error != nil {
		return errors.Wrap(res.Error, "revocations: update failed")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("revocation not found: %s", ticketID)
	}
	return nil
}
