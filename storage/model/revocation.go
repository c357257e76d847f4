package model

// RevocationTicket records a revoked ticket. DeliveryTime is the unix time at
// which the resource server acknowledged the revocation, 0 if it has not
// been delivered yet.
type RevocationTicket struct {
	ID        uint `gorm:"primarykey" json:"-"`
	CreatedAt int  `json:"created_at"`

	TicketID     string `gorm:"uniqueIndex" json:"ticket_id"`
	ServerHost   string `gorm:"index" json:"server"`
	Ticket       Ticket `gorm:"serializer:json" json:"ticket"`
	DeliveryTime int64  `json:"delivery_time"`
}

// RevocationStore abstracts storage of RevocationTickets
type RevocationStore interface {
	List() ([]RevocationTicket, error)
	// Pending returns the revocations that were not delivered yet
	Pending() ([]RevocationTicket, error)
	// Create returns an AlreadyExistsError if the ticket is already revoked
	Create(revocation *RevocationTicket) error
	MarkDelivered(ticketID string, at int64) error
}
