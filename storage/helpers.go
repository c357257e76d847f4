package storage

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dcaf-go/dcaf/mac"
	"github.com/dcaf-go/dcaf/storage/model"
)

// DefaultTicketLifetime is the lifetime of issued tickets in seconds
const DefaultTicketLifetime int64 = 60

// GetTicketLifetime returns the lifetime in seconds of new tickets
func GetTicketLifetime(settings model.SettingsStore) (int64, error) {
	if settings == nil {
		return DefaultTicketLifetime, nil
	}
	var seconds int64
	found, err := settings.Load(model.SettingScopeTicket, model.SettingKeyLifetime, &seconds)
	if err != nil {
		return DefaultTicketLifetime, err
	}
	if !found || seconds <= 0 {
		return DefaultTicketLifetime, nil
	}
	return seconds, nil
}

// SetTicketLifetime sets the lifetime in seconds of new tickets
func SetTicketLifetime(settings model.SettingsStore, seconds int64) error {
	if settings == nil {
		return errors.New("settings store is not set")
	}
	if seconds <= 0 {
		return errors.Errorf("invalid ticket lifetime: %d", seconds)
	}
	return settings.Store(model.SettingScopeTicket, model.SettingKeyLifetime, seconds)
}

// GetMacMethod returns the MAC method of new tickets
func GetMacMethod(settings model.SettingsStore) (mac.Method, error) {
	if settings == nil {
		return mac.Default, nil
	}
	var name string
	found, err := settings.Load(model.SettingScopeTicket, model.SettingKeyMacMethod, &name)
	if err != nil || !found {
		return mac.Default, err
	}
	return mac.ParseMethod(name)
}

// SetMacMethod sets the MAC method of new tickets
func SetMacMethod(settings model.SettingsStore, method mac.Method) error {
	if settings == nil {
		return errors.New("settings store is not set")
	}
	return settings.Store(model.SettingScopeTicket, model.SettingKeyMacMethod, method.String())
}

// duplicateMarkers are the messages of unique constraint violations of
// drivers that do not translate them
var duplicateMarkers = []string{
	"UNIQUE constraint failed",
	"Duplicate entry",
	"duplicate key value",
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, m := range duplicateMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
