package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dcaf-go/dcaf/storage/model"
)

// ServerStorage is the GORM implementation of model.ServerStore
type ServerStorage struct {
	db *gorm.DB
}

// List returns all servers
func (s *ServerStorage) List() ([]model.ServerInfo, error) {
	var rows []model.ServerInfo
	if err := s.db.Order("host").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "servers: list failed")
	}
	return rows, nil
}

// Get returns the server with the passed host
func (s *ServerStorage) Get(host string) (*model.ServerInfo, error) {
	var row model.ServerInfo
	if err := s.db.Where("host = ?", host).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("server not found: %s", host)
		}
		return nil, errors.Wrap(err, "servers: get failed")
	}
	return &row, nil
}

// Create inserts a new server
func (s *ServerStorage) Create(server model.ServerInfo) error {
	if server.Host == "" {
		return errors.New("servers: host is required")
	}
	if err := s.db.Create(&server).Error; err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsErrorFmt("server already exists: %s", server.Host)
		}
		return errors.Wrap(err, "servers: create failed")
	}
	return nil
}

// Upsert creates or replaces a server
func (s *ServerStorage) Upsert(server model.ServerInfo) error {
	if server.Host == "" {
		return errors.New("servers: host is required")
	}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&server).Error; err != nil {
		return errors.Wrap(err, "servers: upsert failed")
	}
	return nil
}

// Delete removes a server
func (s *ServerStorage) Delete(host string) error {
	res := s.db.Where("host = ?", host).Delete(&model.ServerInfo{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "servers: delete failed")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("server not found: %s", host)
	}
	return nil
}
