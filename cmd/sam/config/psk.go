package config

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf/psk"
	"github.com/dcaf-go/dcaf/storage"
)

// pskBackend selects where pre-shared keys are kept
type pskBackend string

// The supported PSK backends
const (
	PSKBackendGorm   pskBackend = "gorm"
	PSKBackendBadger pskBackend = "badger"
	PSKBackendStatic pskBackend = "static"
)

type pskConf struct {
	Backend pskBackend        `yaml:"backend"`
	Dir     string            `yaml:"dir"`
	Static  []psk.StaticEntry `yaml:"static"`
}

var defaultPSKConf = pskConf{
	Backend: PSKBackendGorm,
}

func (c *pskConf) validate() error {
	switch c.Backend {
	case PSKBackendGorm, PSKBackendStatic:
		return nil
	case PSKBackendBadger:
		if c.Dir == "" {
			return errors.New("error in psk conf: dir must be specified for the badger backend")
		}
		return nil
	default:
		return errors.Errorf("error in psk conf: unknown backend '%s'", c.Backend)
	}
}

// NewStore creates the configured psk.Store; the catalog storage s serves
// the gorm backend
func (c pskConf) NewStore(s *storage.Storage) (psk.Store, error) {
	var store psk.Store
	switch c.Backend {
	case PSKBackendBadger:
		b, err := psk.NewBadgerStore(c.Dir)
		if err != nil {
			return nil, err
		}
		store = b
	case PSKBackendStatic:
		store = psk.NewStatic(c.Static)
	default:
		store = s.PSKStorage()
	}
	log.WithField("backend", c.Backend).Info("Loaded psk store")
	return store, nil
}
