// Package dcaf provides the http services of a DCAF deployment: the Server
// Authorization Manager (SAM) that issues tickets and the Client
// Authorization Manager (CAM) that forwards access requests of its clients.
package dcaf

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf/api/adminapi"
	"github.com/dcaf-go/dcaf/engine"
	"github.com/dcaf-go/dcaf/psk"
	"github.com/dcaf-go/dcaf/wire"
)

// AuthorizePath is the path of the ticket request endpoint
const AuthorizePath = "/authorize"

// AdminConf configures the admin api of the SAM
type AdminConf struct {
	Enabled      bool
	UsersEnabled bool
	// Port, when > 0, serves the admin api on its own port
	Port    int
	BaseURL string
}

// SAM is the Server Authorization Manager
type SAM struct {
	*engine.Engine
	keys        psk.Store
	server      *fiber.App
	adminServer *fiber.App
	serverConf  ServerConf
}

// NewSAM creates a new SAM that issues tickets with eng. keys resolves the
// identity of requesting CAMs and may be nil.
func NewSAM(
	serverConf ServerConf, eng *engine.Engine, keys psk.Store, admin AdminConf, accessLog logger.Config,
) (*SAM, error) {
	server := newFiberApp(serverConf, accessLog)
	sam := &SAM{
		Engine:     eng,
		keys:       keys,
		server:     server,
		serverConf: serverConf,
	}
	server.Post(AuthorizePath, sam.handleAuthorize)

	if !admin.Enabled {
		return sam, nil
	}
	adminRouter := fiber.Router(server)
	if admin.Port > 0 && admin.Port != serverConf.Port {
		sam.adminServer = newFiberApp(serverConf, accessLog)
		sam.serverConf.AdminAPIPort = admin.Port
		adminRouter = sam.adminServer
	}
	if err := adminapi.Register(
		adminRouter.Group("/api/v1/admin"), admin.BaseURL, eng, &adminapi.Options{
			UsersEnabled: admin.UsersEnabled,
			Port:         admin.Port,
		},
	); err != nil {
		return nil, err
	}
	return sam, nil
}

// isCBOR checks the content type of the request
func isCBOR(ctx *fiber.Ctx) bool {
	mediaType, _, err := mime.ParseMediaType(string(ctx.Request().Header.ContentType()))
	return err == nil && mediaType == wire.ContentType
}

// camIdentity returns the identity of the CAM at peer, i.e. the PSK
// identity bound to its address or, if there is none, its host
func (sam *SAM) camIdentity(peer string) string {
	host := wire.HostOfPeer(peer)
	if sam.keys == nil {
		return host
	}
	identity, err := sam.keys.IdentityFor(host)
	if err != nil {
		if !errors.Is(err, psk.ErrNotFound) {
			log.WithError(err).WithField("peer", host).Warn("could not resolve psk identity")
		}
		return host
	}
	return identity
}

func (sam *SAM) handleAuthorize(ctx *fiber.Ctx) error {
	if !isCBOR(ctx) {
		return fiber.NewError(fiber.StatusBadRequest, "content type must be "+wire.ContentType)
	}
	req, err := wire.DecodeTicketRequest(ctx.Body())
	if err != nil {
		return err
	}
	camID := sam.camIdentity(ctx.IP())
	grant, err := sam.Authorize(ctx.UserContext(), camID, *req)
	if err != nil {
		return err
	}
	if grant == nil {
		return ctx.SendStatus(fiber.StatusOK)
	}
	data, err := wire.Marshal(grant)
	if err != nil {
		return err
	}
	ctx.Set(fiber.HeaderCacheControl, fmt.Sprintf("max-age=%d", grant.Face.Lifetime))
	ctx.Set(fiber.HeaderContentType, wire.ContentType)
	return ctx.Send(data)
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (sam *SAM) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(sam.server)
}

// App returns the fiber.App of the protocol endpoints
func (sam *SAM) App() *fiber.App {
	return sam.server
}

// AdminApp returns the fiber.App of the admin api if it runs on its own
// port, otherwise nil
func (sam *SAM) AdminApp() *fiber.App {
	return sam.adminServer
}

// Start starts the servers of the SAM and blocks
func (sam *SAM) Start() {
	if sam.adminServer != nil {
		port := sam.serverConf.AdminAPIPort
		go func() {
			log.WithField("port", port).Info("starting admin api server")
			log.WithError(sam.adminServer.Listen(sam.serverConf.Addr(port))).Fatal()
		}()
	}
	serve(sam.server, sam.serverConf)
}

// Shutdown gracefully stops the servers
func (sam *SAM) Shutdown() error {
	if sam.adminServer != nil {
		if err := sam.adminServer.Shutdown(); err != nil {
			return err
		}
	}
	return sam.server.Shutdown()
}
