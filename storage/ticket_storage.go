package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dcaf-go/dcaf/storage/model"
)

// TicketStorage is the GORM implementation of model.TicketStore
type TicketStorage struct {
	db *gorm.DB
}

func (s *TicketStorage) find(query any, args ...any) ([]model.Ticket, error) {
	var rows []model.Ticket
	q := s.db
	if query != nil {
		q = q.Where(query, args...)
	}
	if err := q.Order("created_at").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "tickets: list failed")
	}
	return rows, nil
}

// List returns all issued tickets
func (s *TicketStorage) List() ([]model.Ticket, error) {
	return s.find(nil)
}

// ListByCam returns the tickets issued to a CAM
func (s *TicketStorage) ListByCam(cam string) ([]model.Ticket, error) {
	return s.find("cam_identifier = ?", cam)
}

// ListByServer returns the tickets issued for a server
func (s *TicketStorage) ListByServer(host string) ([]model.Ticket, error) {
	return s.find("server_host = ?", host)
}

// Get returns the ticket with the passed id
func (s *TicketStorage) Get(id string) (*model.Ticket, error) {
	var row model.Ticket
	if err := s.db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("ticket not found: %s", id)
		}
		return nil, errors.Wrap(err, "tickets: get failed")
	}
	return &row, nil
}

// Create stores a new ticket
func (s *TicketStorage) Create(ticket model.Ticket) error {
	if ticket.ID == "" {
		return errors.New("tickets: id is required")
	}
	if err := s.db.Create(&ticket).Error; err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsErrorFmt("ticket already exists: %s", ticket.ID)
		}
		return errors.Wrap(err, "tickets: create failed")
	}
	return nil
}

// Delete removes a ticket
func (s *TicketStorage) Delete(id string) error {
	res := s.db.Where("id = ?", id).Delete(&model.Ticket{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "tickets: delete failed")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("ticket not found: %s", id)
	}
	return nil
}
