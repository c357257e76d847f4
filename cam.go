package dcaf

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf/internal/version"
	"github.com/dcaf-go/dcaf/wire"
)

// ClientAuthorizePath is the path of the access request endpoint of the CAM
const ClientAuthorizePath = "/client-authorize"

// DefaultSAMTimeout is the time the CAM waits for an answer of the SAM
const DefaultSAMTimeout = 10 * time.Second

// CAM is the Client Authorization Manager
type CAM struct {
	client     *resty.Client
	server     *fiber.App
	serverConf ServerConf
}

// NewCAM creates a new CAM. samTLS is used for the connections to the SAM;
// for mutual TLS it must carry the certificate of the CAM.
func NewCAM(serverConf ServerConf, samTimeout time.Duration, samTLS *tls.Config, accessLog logger.Config) *CAM {
	if samTimeout <= 0 {
		samTimeout = DefaultSAMTimeout
	}
	client := resty.New().
		SetTimeout(samTimeout).
		SetHeader("User-Agent", version.UserAgent("cam")).
		SetHeader(fiber.HeaderContentType, wire.ContentType)
	if samTLS != nil {
		client.SetTLSClientConfig(samTLS)
	}
	cam := &CAM{
		client:     client,
		server:     newFiberApp(serverConf, accessLog),
		serverConf: serverConf,
	}
	cam.server.Post(ClientAuthorizePath, cam.handleClientAuthorize)
	return cam
}

func (cam *CAM) handleClientAuthorize(ctx *fiber.Ctx) error {
	req, err := wire.DecodeAccessRequest(ctx.Body())
	if err != nil {
		return err
	}
	status, body, err := cam.forward(ctx.UserContext(), req.TicketRequest())
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return ctx.SendStatus(status)
	}
	if len(body) == 0 {
		return ctx.SendStatus(fiber.StatusOK)
	}
	grant, err := wire.DecodeTicketGrant(body)
	if err != nil {
		return errors.Errorf("malformed answer from sam: %v", err)
	}
	data, err := wire.Marshal(grant)
	if err != nil {
		return err
	}
	ctx.Set(fiber.HeaderContentType, wire.ContentType)
	return ctx.Send(data)
}

// forward posts a ticket request to the SAM it names and returns the status
// and body of the answer
func (cam *CAM) forward(ctx context.Context, req wire.TicketRequestMessage) (int, []byte, error) {
	body, err := wire.Marshal(req)
	if err != nil {
		return 0, nil, errors.Wrap(wire.ErrMalformed, err.Error())
	}
	res, err := cam.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(req.SAM)
	if err != nil {
		if isTimeout(err) {
			return 0, nil, errors.Wrap(ErrUpstreamTimeout, req.SAM)
		}
		log.WithError(err).WithField("sam", req.SAM).Warn("could not reach sam")
		return 0, nil, errors.Wrap(ErrUpstreamUnavailable, req.SAM)
	}
	log.WithFields(log.Fields{"sam": req.SAM, "status": res.StatusCode()}).Debug("sam answered ticket request")
	return res.StatusCode(), res.Body(), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// HttpHandlerFunc returns an http.HandlerFunc for serving the CAM endpoints
func (cam *CAM) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(cam.server)
}

// App returns the fiber.App of the CAM
func (cam *CAM) App() *fiber.App {
	return cam.server
}

// Start starts the server of the CAM and blocks
func (cam *CAM) Start() {
	serve(cam.server, cam.serverConf)
}
