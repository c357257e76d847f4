package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dcaf-go/dcaf/storage/model"
)

// CamStorage is the GORM implementation of model.CamStore
type CamStorage struct {
	db *gorm.DB
}

// List returns all CAMs
func (s *CamStorage) List() ([]model.CamInfo, error) {
	var rows []model.CamInfo
	if err := s.db.Order("identifier").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "cams: list failed")
	}
	return rows, nil
}

// Get returns the CAM with the passed identifier
func (s *CamStorage) Get(id string) (*model.CamInfo, error) {
	var row model.CamInfo
	if err := s.db.Where("identifier = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("cam not found: %s", id)
		}
		return nil, errors.Wrap(err, "cams: get failed")
	}
	return &row, nil
}

// Create inserts a new CAM
func (s *CamStorage) Create(cam model.CamInfo) error {
	if cam.Identifier == "" {
		return errors.New("cams: identifier is required")
	}
	if err := s.db.Create(&cam).Error; err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsErrorFmt("cam already exists: %s", cam.Identifier)
		}
		return errors.Wrap(err, "cams: create failed")
	}
	return nil
}

// Update replaces an existing CAM
func (s *CamStorage) Update(cam model.CamInfo) error {
	res := s.db.Model(&model.CamInfo{}).Where("identifier = ?", cam.Identifier).Update("name", cam.Name)
	if res.Error != nil {
		return errors.Wrap(res.Error, "cams: update failed")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("cam not found: %s", cam.Identifier)
	}
	return nil
}

// Upsert creates or replaces a CAM
func (s *CamStorage) Upsert(cam model.CamInfo) error {
	if cam.Identifier == "" {
		return errors.New("cams: identifier is required")
	}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&cam).Error; err != nil {
		return errors.Wrap(err, "cams: upsert failed")
	}
	return nil
}

// Delete removes a CAM
func (s *CamStorage) Delete(id string) error {
	res := s.db.Where("identifier = ?", id).Delete(&model.CamInfo{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "cams: delete failed")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("cam not found: %s", id)
	}
	return nil
}
