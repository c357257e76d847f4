package storage

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/dcaf-go/dcaf/storage/model"
)

// Errors returned by Authenticate
var (
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	ErrUserDisabled       = errors.New("users: user disabled")
)

// UsersStorage is the GORM implementation of model.UsersStore. Passwords are
// stored as argon2id hashes.
type UsersStorage struct {
	db     *gorm.DB
	params Argon2idParams
}

// UsersStorage returns a UsersStorage
func (s *Storage) UsersStorage() *UsersStorage {
	return &UsersStorage{db: s.db, params: s.userParams}
}

func (s *UsersStorage) find(username string) (*model.User, error) {
	var u model.User
	if err := s.db.Where("username = ?", username).Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("user not found: %s", username)
		}
		return nil, errors.Wrap(err, "users: get failed")
	}
	return &u, nil
}

func withoutHash(u *model.User) *model.User {
	u.PasswordHash = ""
	return u
}

// Count implements the model.UsersStore interface
func (s *UsersStorage) Count() (int64, error) {
	var n int64
	err := s.db.Model(&model.User{}).Count(&n).Error
	return n, errors.Wrap(err, "users: count failed")
}

// List implements the model.UsersStore interface
func (s *UsersStorage) List() ([]model.User, error) {
	var users []model.User
	if err := s.db.Omit("password_hash").Order("username").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "users: list failed")
	}
	return users, nil
}

// Get implements the model.UsersStore interface
func (s *UsersStorage) Get(username string) (*model.User, error) {
	u, err := s.find(username)
	if err != nil {
		return nil, err
	}
	return withoutHash(u), nil
}

// Create implements the model.UsersStore interface
func (s *UsersStorage) Create(username, password, displayName string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}
	hash, err := s.params.hashPassword(password)
	if err != nil {
		return nil, err
	}
	u := model.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
	}
	if err = s.db.Create(&u).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, model.AlreadyExistsErrorFmt("user already exists: %s", username)
		}
		return nil, errors.Wrap(err, "users: create failed")
	}
	return withoutHash(&u), nil
}

// Update implements the model.UsersStore interface; nil arguments are left
// unchanged
func (s *UsersStorage) Update(username string, displayName, newPassword *string, disabled *bool) (*model.User, error) {
	u, err := s.find(username)
	if err != nil {
		return nil, err
	}
	if displayName != nil {
		u.DisplayName = *displayName
	}
	if disabled != nil {
		u.Disabled = *disabled
	}
	if newPassword != nil {
		if *newPassword == "" {
			return nil, errors.New("password cannot be empty")
		}
		if u.PasswordHash, err = s.params.hashPassword(*newPassword); err != nil {
			return nil, err
		}
	}
	if err = s.db.Save(u).Error; err != nil {
		return nil, errors.Wrap(err, "users: update failed")
	}
	return withoutHash(u), nil
}

// Delete implements the model.UsersStore interface
func (s *UsersStorage) Delete(username string) error {
	res := s.db.Where("username = ?", username).Delete(&model.User{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "users: delete failed")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("user not found: %s", username)
	}
	return nil
}

// Authenticate implements the model.UsersStore interface. Unknown users and
// wrong passwords both give ErrInvalidCredentials. A hash created with other
// parameters than the configured ones is replaced on success.
func (s *UsersStorage) Authenticate(username, password string) (*model.User, error) {
	u, err := s.find(username)
	if err != nil {
		if model.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	h, err := parsePHC(u.PasswordHash)
	if err != nil || !h.matches(password) {
		return nil, ErrInvalidCredentials
	}
	if !u.CanLogIn() {
		return nil, ErrUserDisabled
	}
	if want := s.params.orDefault(); h.params != want {
		s.rehash(u, password)
	}
	return withoutHash(u), nil
}

func (s *UsersStorage) rehash(u *model.User, password string) {
	hash, err := s.params.hashPassword(password)
	if err == nil {
		err = s.db.Model(&model.User{}).Where("id = ?", u.ID).Update("password_hash", hash).Error
	}
	if err != nil {
		log.WithError(err).WithField("user", u.Username).Warn("could not upgrade password hash")
	}
}
