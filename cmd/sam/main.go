package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf"
	"github.com/dcaf-go/dcaf/cmd/sam/config"
	"github.com/dcaf-go/dcaf/engine"
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
	logger.Init("sam", c.Logging.Internal)
	log.WithField("version", version.VERSION).Info("Loaded Config")

	backs, store, err := config.LoadStorageBackends(c.Storage, c.API.Admin.PasswordHashing)
	if err != nil {
		log.WithError(err).Fatal("could not load storage")
	}
	keys, err := c.PSK.NewStore(store)
	if err != nil {
		log.WithError(err).Fatal("could not load psk store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []engine.Option{}
	serverCache, ttl, err := c.Caching.NewCache(ctx)
	if err != nil {
		log.WithError(err).Fatal("could not init cache")
	}
	if serverCache != nil {
		opts = append(opts, engine.WithCache(serverCache, ttl))
	}
	verifier, err := c.Update.Verifier()
	if err != nil {
		log.WithError(err).Fatal("could not load update key")
	}
	if verifier != nil {
		opts = append(opts, engine.WithUpdateVerifier(verifier))
	}
	if c.Protocol.NotifyServers {
		opts = append(
			opts, engine.WithNotifier(
				engine.NewHTTPNotifier(c.Protocol.NotifyScheme, c.Protocol.NotifyTimeout.Duration(), nil),
			),
		)
	}
	eng := engine.New(backs, keys, opts...)

	sam, err := dcaf.NewSAM(
		c.Server, eng, keys, dcaf.AdminConf{
			Enabled:      c.API.Admin.Enabled,
			UsersEnabled: c.API.Admin.UsersEnabled,
			Port:         c.API.Admin.Port,
			BaseURL:      c.API.Admin.BaseURL,
		}, c.Logging.AccessLogConfig("sam"),
	)
	if err != nil {
		log.WithError(err).Fatal("could not create sam")
	}

	sweeper := eng.NewSweeper(c.Protocol.SweepDelay.Duration(), c.Protocol.SweepPeriod.Duration())
	sweeper.Start(ctx)
	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		sweeper.Stop()
		if err := sam.Shutdown(); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
		if closer, ok := keys.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				log.WithError(err).Error("could not close psk store")
			}
		}
		if err := store.Close(); err != nil {
			log.WithError(err).Error("could not close storage")
		}
		os.Exit(0)
	}()
	log.Info("Initialized SAM")
	sam.Start()
}
