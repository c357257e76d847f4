package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"

	"github.com/dcaf-go/dcaf/engine"
)

// protocolConf configures the ticket sweep and the delivery of revocations
// to resource servers
type protocolConf struct {
	SweepDelay    duration.DurationOption `yaml:"sweep_delay"`
	SweepPeriod   duration.DurationOption `yaml:"sweep_period"`
	NotifyServers bool                    `yaml:"notify_servers"`
	NotifyScheme  string                  `yaml:"notify_scheme"`
	NotifyTimeout duration.DurationOption `yaml:"notify_timeout"`
}

var defaultProtocolConf = protocolConf{
	SweepDelay:    duration.DurationOption(engine.DefaultSweepDelay),
	SweepPeriod:   duration.DurationOption(engine.DefaultSweepPeriod),
	NotifyScheme:  "https",
	NotifyTimeout: duration.DurationOption(5 * time.Second),
}

func (c *protocolConf) validate() error {
	if c.SweepPeriod.Duration() <= 0 {
		return errors.New("error in protocol conf: sweep_period must be positive")
	}
	switch c.NotifyScheme {
	case "http", "https":
	default:
		return errors.Errorf("error in protocol conf: unsupported notify_scheme '%s'", c.NotifyScheme)
	}
	return nil
}
