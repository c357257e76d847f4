package dcaf

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ServerConf configures the http server of the SAM and the CAM
type ServerConf struct {
	IPListen          string   `yaml:"ip_listen"`
	Port              int      `yaml:"port"`
	AdminAPIPort      int      `yaml:"-"`
	TLS               TLSConf  `yaml:"tls"`
	TrustedProxies    []string `yaml:"trusted_proxies"`
	ForwardedIPHeader string   `yaml:"forwarded_ip_header"`
}

// TLSConf configures TLS; if ClientCA is set, clients must present a
// certificate signed by it
type TLSConf struct {
	Enabled      bool   `yaml:"enabled"`
	RedirectHTTP bool   `yaml:"redirect_http"`
	Cert         string `yaml:"cert"`
	Key          string `yaml:"key"`
	ClientCA     string `yaml:"client_ca"`
}

// Addr returns the listen address for port
func (c ServerConf) Addr(port int) string {
	return fmt.Sprintf("%s:%d", c.IPListen, port)
}

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
}

// newFiberApp creates a fiber.App with the common middleware. Access logs go
// to accessLog, or are not written if it is nil.
func newFiberApp(conf ServerConf, accessLog logger.Config) *fiber.App {
	fc := FiberServerConfig
	if tps := conf.TrustedProxies; len(tps) > 0 {
		fc.TrustedProxies = tps
		fc.EnableTrustedProxyCheck = true
	}
	fc.ProxyHeader = conf.ForwardedIPHeader
	server := fiber.New(fc)
	server.Use(recover.New())
	server.Use(compress.New())
	if accessLog.Output != nil {
		server.Use(logger.New(accessLog))
	}
	server.Use(requestid.New())
	return server
}

// tlsConfig builds the tls.Config for conf
func (c TLSConf) tlsConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(c.Cert, c.Key)
	if err != nil {
		return nil, errors.Wrap(err, "could not load tls key pair")
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if c.ClientCA == "" {
		return cfg, nil
	}
	pem, err := os.ReadFile(c.ClientCA)
	if err != nil {
		return nil, errors.Wrap(err, "could not read client ca")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.Errorf("no certificates found in client ca '%s'", c.ClientCA)
	}
	cfg.ClientCAs = pool
	cfg.ClientAuth = tls.RequireAndVerifyClientCert
	return cfg, nil
}

// serve starts server according to conf and blocks
func serve(server *fiber.App, conf ServerConf) {
	if !conf.TLS.Enabled {
		port := conf.Port
		if port == 0 {
			port = 80
		}
		log.WithField("port", port).Info("TLS is disabled starting http server")
		log.WithError(server.Listen(conf.Addr(port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					"https://"+ctx.Hostname()+ctx.OriginalURL(),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(conf.Addr(80))).Fatal()
		}()
	}
	port := conf.Port
	if port == 0 {
		port = 443
	}
	tlsConfig, err := conf.TLS.tlsConfig()
	if err != nil {
		log.WithError(err).Fatal()
	}
	ln, err := tls.Listen(FiberServerConfig.Network, conf.Addr(port), tlsConfig)
	if err != nil {
		log.WithError(err).Fatal()
	}
	log.WithFields(log.Fields{"port": port, "mutual": tlsConfig.ClientCAs != nil}).Info("TLS enabled, starting https server")
	log.WithError(server.Listener(ln)).Fatal()
}
