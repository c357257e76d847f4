package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf"
	"github.com/dcaf-go/dcaf/cmd/cam/config"
	"github.com/dcaf-go/dcaf/internal/logger"
	"github.com/dcaf-go/dcaf/internal/version"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	c := config.Get()
	logger.Init("cam", c.Logging.Internal)
	log.WithField("version", version.VERSION).Info("Loaded Config")

	samTLS, err := c.SAM.TLSConfig()
	if err != nil {
		log.WithError(err).Fatal("could not load tls config for sam connections")
	}
	cam := dcaf.NewCAM(c.Server, c.SAM.Timeout.Duration(), samTLS, c.Logging.AccessLogConfig("cam"))
	log.Info("Initialized CAM")
	cam.Start()
}
