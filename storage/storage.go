package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dcaf-go/dcaf/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db         *gorm.DB
	userParams Argon2idParams
}

var models = []any{
	&model.CamInfo{},
	&model.ServerInfo{},
	&model.AccessRule{},
	&model.Ticket{},
	&model.RevocationTicket{},
	&model.PSKEntry{},
	&model.Setting{},
	&model.User{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err = db.AutoMigrate(models...); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	// Fill user hash params with defaults if zero values
	params := config.UsersHash
	if params.Time == 0 {
		params = defaultArgon2idParams()
	}

	return &Storage{
		db:         db,
		userParams: params,
	}, nil
}

func (s *Storage) withDB(db *gorm.DB) *Storage {
	return &Storage{
		db:         db,
		userParams: s.userParams,
	}
}

// CamStorage returns a CamStorage
func (s *Storage) CamStorage() *CamStorage {
	return &CamStorage{db: s.db}
}

// ServerStorage returns a ServerStorage
func (s *Storage) ServerStorage() *ServerStorage {
	return &ServerStorage{db: s.db}
}

// AccessRuleStorage returns an AccessRuleStorage
func (s *Storage) AccessRuleStorage() *AccessRuleStorage {
	return &AccessRuleStorage{db: s.db}
}

// TicketStorage returns a TicketStorage
func (s *Storage) TicketStorage() *TicketStorage {
	return &TicketStorage{db: s.db}
}

// RevocationStorage returns a RevocationStorage
func (s *Storage) RevocationStorage() *RevocationStorage {
	return &RevocationStorage{db: s.db}
}

// PSKStorage returns a PSKStorage
func (s *Storage) PSKStorage() *PSKStorage {
	return &PSKStorage{db: s.db}
}

// Backends returns all stores grouped as model.Backends. Its Transaction
// function binds all stores to one database transaction.
func (s *Storage) Backends() model.Backends {
	return model.Backends{
		Cams:        s.CamStorage(),
		Servers:     s.ServerStorage(),
		Rules:       s.AccessRuleStorage(),
		Tickets:     s.TicketStorage(),
		Revocations: s.RevocationStorage(),
		Settings:    s.SettingsStorage(),
		Users:       s.UsersStorage(),
		Transaction: s.Transaction,
	}
}

// Transaction runs fn in a database transaction
func (s *Storage) Transaction(fn func(tx model.Backends) error) error {
	return s.db.Transaction(
		func(tx *gorm.DB) error {
			return fn(s.withDB(tx).Backends())
		},
	)
}

// Close closes the underlying database connection
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(sqlDB.Close())
}
