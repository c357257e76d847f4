// Package config loads the configuration of the CAM.
package config

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/duration"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/dcaf-go/dcaf"
	"github.com/dcaf-go/dcaf/internal/logger"
)

// Config holds the configuration of the CAM
type Config struct {
	Server  dcaf.ServerConf `yaml:"server"`
	Logging logger.Settings `yaml:"logging"`
	SAM     samConf         `yaml:"sam"`
}

// samConf configures the connections to SAMs
type samConf struct {
	Timeout duration.DurationOption `yaml:"timeout"`
	// CA verifies the certificates of SAMs; the system pool is used if empty
	CA string `yaml:"ca"`
	// Cert and Key authenticate the CAM for mutual TLS
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

var conf *Config

// Get returns the loaded Config
func Get() *Config {
	return conf
}

var defaultConfig = Config{
	Server: dcaf.ServerConf{
		Port: 7001,
	},
	Logging: logger.DefaultSettings,
	SAM: samConf{
		Timeout: duration.DurationOption(dcaf.DefaultSAMTimeout),
	},
}

var possibleConfigLocations = []string{
	".",
	"config",
	"/config",
	"/etc/dcaf",
	"/cam/config",
}

const configFileName = "cam.yaml"

// Load loads the config from filename, or from the default locations if
// filename is empty; errors are fatal
func Load(filename string) {
	if filename == "" {
		for _, dir := range possibleConfigLocations {
			if path := filepath.Join(dir, configFileName); fileutils.FileExists(path) {
				filename = path
				break
			}
		}
	}
	if filename == "" {
		log.Fatalf("could not find config file '%s' in any of %v", configFileName, possibleConfigLocations)
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
	if err := c.Logging.Validate(); err != nil {
		return nil, err
	}
	if (c.SAM.Cert == "") != (c.SAM.Key == "") {
		return nil, errors.New("error in sam conf: cert and key must be given together")
	}
	for _, f := range []string{c.SAM.CA, c.SAM.Cert, c.SAM.Key} {
		if f != "" && !fileutils.FileExists(f) {
			return nil, errors.Errorf("error in sam conf: file '%s' does not exist", f)
		}
	}
	return &c, nil
}

// TLSConfig returns the tls.Config for connections to SAMs, or nil if the
// defaults suffice
func (c samConf) TLSConfig() (*tls.Config, error) {
	if c.CA == "" && c.Cert == "" {
		return nil, nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.CA != "" {
		pem, err := os.ReadFile(c.CA)
		if err != nil {
			return nil, errors.Wrap(err, "could not read sam ca")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.Errorf("no certificates found in '%s'", c.CA)
		}
		cfg.RootCAs = pool
	}
	if c.Cert != "" {
		cert, err := tls.LoadX509KeyPair(c.Cert, c.Key)
		if err != nil {
			return nil, errors.Wrap(err, "could not load cam key pair")
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
