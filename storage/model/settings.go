package model

import (
	"gorm.io/datatypes"
)

// Setting scopes and keys
const (
	SettingScopeTicket = "ticket"

	SettingKeyLifetime  = "lifetime"
	SettingKeyMacMethod = "mac_method"
)

// Setting is a runtime setting that can be changed through the admin API.
// Values are stored as JSON; Scope namespaces the keys.
type Setting struct {
	CreatedAt int `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int `gorm:"autoUpdateTime" json:"updated_at"`

	Scope string         `gorm:"primaryKey" json:"scope"`
	Key   string         `gorm:"primaryKey" json:"key"`
	Value datatypes.JSON `json:"value"`
}

// SettingsStore keeps Settings
type SettingsStore interface {
	// Load unmarshals the value of (scope, key) into out and reports whether
	// the setting exists
	Load(scope, key string, out any) (bool, error)
	// Store marshals v and stores it as the value of (scope, key)
	Store(scope, key string, v any) error
	// Delete removes a setting; deleting an absent setting is not an error
	Delete(scope, key string) error
}
