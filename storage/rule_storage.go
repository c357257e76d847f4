package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dcaf-go/dcaf/storage/model"
)

// AccessRuleStorage is the GORM implementation of model.AccessRuleStore
type AccessRuleStorage struct {
	db *gorm.DB
}

// List returns all access rules
func (s *AccessRuleStorage) List() ([]model.AccessRule, error) {
	var rows []model.AccessRule
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "rules: list failed")
	}
	return rows, nil
}

// ListByCam returns the access rules of one CAM
func (s *AccessRuleStorage) ListByCam(cam string) ([]model.AccessRule, error) {
	var rows []model.AccessRule
	if err := s.db.Where("cam_identifier = ?", cam).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "rules: list failed")
	}
	return rows, nil
}

// Get returns the access rule with the passed id
func (s *AccessRuleStorage) Get(id string) (*model.AccessRule, error) {
	var row model.AccessRule
	if err := s.db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("access rule not found: %s", id)
		}
		return nil, errors.Wrap(err, "rules: get failed")
	}
	return &row, nil
}

// Create inserts a new access rule
func (s *AccessRuleStorage) Create(rule model.AccessRule) error {
	if rule.ID == "" {
		return errors.New("rules: id is required")
	}
	if err := s.db.Create(&rule).Error; err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsErrorFmt("access rule already exists: %s", rule.ID)
		}
		return errors.Wrap(err, "rules: create failed")
	}
	return nil
}

// Upsert creates or replaces an access rule
func (s *AccessRuleStorage) Upsert(rule model.AccessRule) error {
	if rule.ID == "" {
		return errors.New("rules: id is required")
	}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rule).Error; err != nil {
		return errors.Wrap(err, "rules: upsert failed")
	}
	return nil
}

// Delete removes an access rule
func (s *AccessRuleStorage) Delete(id string) error {
	res := s.db.Where("id = ?", id).Delete(&model.AccessRule{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "rules: delete failed")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("access rule not found: %s", id)
	}
	return nil
}

// DeleteByCam removes all access rules of a CAM
func (s *AccessRuleStorage) DeleteByCam(cam string) error {
	if err := s.db.Where("cam_identifier = ?", cam).Delete(&model.AccessRule{}).Error; err != nil {
		return errors.Wrap(err, "rules: delete failed")
	}
	return nil
}
