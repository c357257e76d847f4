package model

// Backends groups all storage interfaces used by the application.
// It provides a single struct that can be passed around instead of
// multiple return values for each storage backend.
type Backends struct {
	Cams        CamStore
	Servers     ServerStore
	Rules       AccessRuleStore
	Tickets     TicketStore
	Revocations RevocationStore
	Settings    SettingsStore
	Users       UsersStore

	// Transaction runs fn with Backends bound to a single database
	// transaction; if fn returns an error everything is rolled back.
	Transaction func(fn func(tx Backends) error) error
}

// InTransaction runs fn inside a transaction if the backends support it and
// directly otherwise
func (b Backends) InTransaction(fn func(tx Backends) error) error {
	if b.Transaction == nil {
		return fn(b)
	}
	return b.Transaction(fn)
}
