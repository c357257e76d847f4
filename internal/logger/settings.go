package logger

import (
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/fileutils"
)

// Settings holds all logging-related configuration under the `logging` key.
//
// YAML example:
//
//	logging:
//	  access:
//	    dir: /var/log/dcaf
//	    stderr: false
//	  internal:
//	    dir: /var/log/dcaf
//	    stderr: false
//	    level: INFO
//	    json: false
//	    smart:
//	      enabled: false
//	      dir: /var/log/dcaf/smart
type Settings struct {
	Access   Conf         `yaml:"access"`
	Internal InternalConf `yaml:"internal"`
	// DisableAccess turns access logging off
	DisableAccess bool `yaml:"disable_access"`
}

// DefaultSettings are the logging defaults
var DefaultSettings = Settings{
	Internal: InternalConf{
		Level: "INFO",
	},
}

func checkDirExists(dir string) error {
	if dir != "" && !fileutils.FileExists(dir) {
		return errors.Errorf("logging directory '%s' does not exist", dir)
	}
	return nil
}

// Validate checks that all configured directories exist
func (s *Settings) Validate() error {
	if err := checkDirExists(s.Access.Dir); err != nil {
		return err
	}
	if err := checkDirExists(s.Internal.Dir); err != nil {
		return err
	}
	if s.Internal.Smart.Enabled {
		if s.Internal.Smart.Dir == "" {
			s.Internal.Smart.Dir = s.Internal.Dir
		}
		if err := checkDirExists(s.Internal.Smart.Dir); err != nil {
			return err
		}
	}
	return nil
}

// AccessLogConfig returns the configuration of fiber's access log middleware
// for component; Output is nil if access logging is disabled
func (s Settings) AccessLogConfig(component string) logger.Config {
	if s.DisableAccess {
		return logger.Config{}
	}
	return logger.Config{
		Format:     "${time} ${ip} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Output:     AccessLogWriter(component, s.Access),
	}
}
