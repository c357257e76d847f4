// Package config loads the configuration of the SAM.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/dcaf-go/dcaf"
	"github.com/dcaf-go/dcaf/internal/logger"
)

// Config holds the configuration of the SAM
type Config struct {
	Server   dcaf.ServerConf `yaml:"server"`
	Logging  logger.Settings `yaml:"logging"`
	Storage  storageConf     `yaml:"storage"`
	PSK      pskConf         `yaml:"psk"`
	Caching  cachingConf     `yaml:"caching"`
	API      apiConf         `yaml:"api"`
	Protocol protocolConf    `yaml:"protocol"`
	Update   updateConf      `yaml:"update"`
}

var conf *Config

// Get returns the loaded Config
func Get() *Config {
	return conf
}

var defaultConfig = Config{
	Server: dcaf.ServerConf{
		Port: 7000,
	},
	Logging:  logger.DefaultSettings,
	Storage:  defaultStorageConf,
	PSK:      defaultPSKConf,
	Caching:  defaultCachingConf,
	API:      defaultAPIConf,
	Protocol: defaultProtocolConf,
}

var possibleConfigLocations = []string{
	".",
	"config",
	"/config",
	"/etc/dcaf",
	"/sam/config",
}

const configFileName = "sam.yaml"

func findConfigFile() (string, error) {
	for _, dir := range possibleConfigLocations {
		path := filepath.Join(dir, configFileName)
		if fileutils.FileExists(path) {
			return path, nil
		}
	}
	return "", errors.Errorf("could not find config file '%s' in any of %v", configFileName, possibleConfigLocations)
}

// Load loads the config from filename, or from the default locations if
// filename is empty; errors are fatal
func Load(filename string) {
	var err error
	if filename == "" {
		if filename, err = findConfigFile(); err != nil {
			log.WithError(err).Fatal()
		}
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		log.WithError(err).Fatal("could not read config file")
	}
	c, err := Parse(data)
	if err != nil {
		log.WithError(err).WithField("file", filename).Fatal("invalid config")
	}
	conf = c
}

// Parse parses and validates yaml config data on top of the defaults
func Parse(data []byte) (*Config, error) {
	c := defaultConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "could not parse config")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	if err := c.PSK.validate(); err != nil {
		return err
	}
	if err := c.Protocol.validate(); err != nil {
		return err
	}
	if err := c.Update.validate(); err != nil {
		return err
	}
	if tls := c.Server.TLS; tls.Enabled && (tls.Cert == "" || tls.Key == "") {
		return errors.New("error in server conf: tls enabled but cert or key missing")
	}
	if c.API.Admin.Port == 0 {
		c.API.Admin.Port = c.Server.Port
	}
	c.Server.AdminAPIPort = c.API.Admin.Port
	return nil
}
