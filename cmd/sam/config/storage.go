package config

import (
	"slices"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf/storage"
	"github.com/dcaf-go/dcaf/storage/model"
)

type storageConf struct {
	Driver          storage.DriverType `yaml:"driver"`
	DataDir         string             `yaml:"data_dir"`
	DSN             string             `yaml:"dsn"`
	storage.DSNConf `yaml:",inline"`
	Debug           bool `yaml:"debug"`
}

func (c *storageConf) validate() error {
	if !slices.Contains(storage.SupportedDrivers, c.Driver) {
		return errors.Errorf("error in storage conf: unsupported driver '%s'", c.Driver)
	}
	if c.Driver == storage.DriverSQLite {
		if c.DataDir == "" && c.DSN == "" {
			return errors.New("error in storage conf: data_dir must be specified")
		}
		return nil
	}
	var err error
	if c.DSN == "" {
		c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
	}
	return err
}

var defaultStorageConf = storageConf{
	Driver:  storage.DriverSQLite,
	DataDir: "/var/lib/dcaf",
	DSNConf: storage.DSNConf{
		User: "dcaf",
		Host: "localhost",
		DB:   "dcaf",
	},
}

// LoadStorageBackends loads and returns the storage backends for the passed
// Config
func LoadStorageBackends(c storageConf, usersHash storage.Argon2idParams) (
	model.Backends, *storage.Storage, error,
) {
	cfg := storage.Config{
		Driver:    c.Driver,
		DSN:       c.DSN,
		DataDir:   c.DataDir,
		Debug:     c.Debug,
		UsersHash: usersHash,
	}
	backs, s, err := storage.LoadStorageBackends(cfg)
	if err != nil {
		return model.Backends{}, nil, err
	}
	log.WithField("driver", c.Driver).Info("Loaded storage backend")
	return backs, s, nil
}
