package config

import "github.com/dcaf-go/dcaf/storage"

type apiConf struct {
	Admin adminAPIConf `yaml:"admin"`
}

// adminAPIConf configures the admin API. A zero Port serves it on the main
// listener; unset password hashing parameters fall back to the storage
// defaults.
type adminAPIConf struct {
	Enabled      bool   `yaml:"enabled"`
	UsersEnabled bool   `yaml:"users_enabled"`
	Port         int    `yaml:"port"`
	BaseURL      string `yaml:"base_url"`

	PasswordHashing storage.Argon2idParams `yaml:"password_hashing"`
}

var defaultAPIConf = apiConf{
	Admin: adminAPIConf{
		Enabled:      true,
		UsersEnabled: true,
	},
}
