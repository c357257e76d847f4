package model

import (
	"github.com/dcaf-go/dcaf/wire"
)

// Ticket is an issued ticket as it is persisted, i.e. together with the CAM
// it was issued to and the server it is for
type Ticket struct {
	CreatedAt int `json:"created_at"`

	ID            string    `gorm:"primaryKey" json:"id"`
	CamIdentifier string    `gorm:"index" json:"cam"`
	ServerHost    string    `gorm:"index" json:"server"`
	Face          wire.Face `gorm:"serializer:json" json:"face"`
	Verifier      []byte    `json:"verifier"`
}

// TicketFromGrant creates the persisted form of a TicketGrantMessage
func TicketFromGrant(g wire.TicketGrantMessage) Ticket {
	return Ticket{
		ID:            g.ID,
		CamIdentifier: g.Cam,
		ServerHost:    g.Server,
		Face:          g.Face,
		Verifier:      g.Verifier,
	}
}

// Grant returns the ticket as a TicketGrantMessage including the bookkeeping
// fields
func (t Ticket) Grant() wire.TicketGrantMessage {
	return wire.TicketGrantMessage{
		ID:       t.ID,
		Face:     t.Face,
		Verifier: t.Verifier,
		Cam:      t.CamIdentifier,
		Server:   t.ServerHost,
	}
}

// TicketStore abstracts storage of issued tickets
type TicketStore interface {
	List() ([]Ticket, error)
	ListByCam(cam string) ([]Ticket, error)
	ListByServer(host string) ([]Ticket, error)
	// Get returns a NotFoundError if there is no ticket with this id
	Get(id string) (*Ticket, error)
	// Create returns an AlreadyExistsError if the id is taken
	Create(ticket Ticket) error
	// Delete returns a NotFoundError if there is no ticket with this id
	Delete(id string) error
}
