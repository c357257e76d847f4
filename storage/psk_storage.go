package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dcaf-go/dcaf/psk"
	"github.com/dcaf-go/dcaf/storage/model"
)

// PSKStorage is a psk.Store backed by the database
type PSKStorage struct {
	db *gorm.DB
}

// KeyFor implements the psk.Store interface
func (s *PSKStorage) KeyFor(identity string) ([]byte, error) {
	var row model.PSKEntry
	if err := s.db.Where("identity = ?", identity).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, psk.ErrNotFound
		}
		return nil, errors.Wrap(err, "psk: get failed")
	}
	return row.Key, nil
}

// Set implements the psk.Store interface; an existing peer binding is kept
func (s *PSKStorage) Set(identity string, key []byte) error {
	row := model.PSKEntry{
		Identity: identity,
		Key:      key,
	}
	err := s.db.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity"}},
			DoUpdates: clause.AssignmentColumns([]string{"key", "updated_at"}),
		},
	).Create(&row).Error
	return errors.Wrap(err, "psk: set failed")
}

// Bind implements the psk.Store interface
func (s *PSKStorage) Bind(peer, identity string, key []byte) error {
	row := model.PSKEntry{
		Identity: identity,
		Key:      key,
		Peer:     psk.NormalizePeer(peer),
	}
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	return errors.Wrap(err, "psk: bind failed")
}

// Delete implements the psk.Store interface
func (s *PSKStorage) Delete(identity string) error {
	err := s.db.Where("identity = ?", identity).Delete(&model.PSKEntry{}).Error
	return errors.Wrap(err, "psk: delete failed")
}

// IdentityFor implements the psk.Store interface
func (s *PSKStorage) IdentityFor(peer string) (string, error) {
	var row model.PSKEntry
	if err := s.db.Where("peer = ?", psk.NormalizePeer(peer)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", psk.ErrNotFound
		}
		return "", errors.Wrap(err, "psk: get failed")
	}
	return row.Identity, nil
}
