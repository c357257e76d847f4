package storage

import (
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dcaf-go/dcaf/storage/model"
)

// SettingsStorage is the GORM implementation of model.SettingsStore
type SettingsStorage struct {
	db *gorm.DB
}

// SettingsStorage returns a SettingsStorage
func (s *Storage) SettingsStorage() *SettingsStorage {
	return &SettingsStorage{db: s.db}
}

// Load implements the model.SettingsStore interface
func (s *SettingsStorage) Load(scope, key string, out any) (bool, error) {
	var row model.Setting
	err := s.db.Where(&model.Setting{Scope: scope, Key: key}).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "settings: load failed")
	}
	if len(row.Value) == 0 {
		return false, nil
	}
	if err = json.Unmarshal(row.Value, out); err != nil {
		return false, errors.Wrapf(err, "settings: invalid value for %s/%s", scope, key)
	}
	return true, nil
}

// Store implements the model.SettingsStore interface
func (s *SettingsStorage) Store(scope, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return errors.WithStack(err)
	}
	row := model.Setting{
		Scope: scope,
		Key:   key,
		Value: datatypes.JSON(value),
	}
	err = s.db.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		},
	).Create(&row).Error
	return errors.Wrap(err, "settings: store failed")
}

// Delete implements the model.SettingsStore interface
func (s *SettingsStorage) Delete(scope, key string) error {
	err := s.db.Where(&model.Setting{Scope: scope, Key: key}).Delete(&model.Setting{}).Error
	return errors.Wrap(err, "settings: delete failed")
}
