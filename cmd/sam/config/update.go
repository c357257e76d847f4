package config

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"

	"github.com/dcaf-go/dcaf/update"
)

// updateConf configures the verification of update attribute bundles.
// Without a key, update requests are rejected.
type updateConf struct {
	KeyFile string `yaml:"key_file"`
}

func (c *updateConf) validate() error {
	if c.KeyFile != "" && !fileutils.FileExists(c.KeyFile) {
		return errors.Errorf("error in update conf: key file '%s' does not exist", c.KeyFile)
	}
	return nil
}

// Verifier loads the update verifier, or returns nil if no key is configured
func (c updateConf) Verifier() (*update.Verifier, error) {
	if c.KeyFile == "" {
		log.Info("No update key configured, update requests are rejected")
		return nil, nil
	}
	return update.LoadVerifier(c.KeyFile)
}
