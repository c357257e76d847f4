package adminapi

import (
	"embed"
	"net"
	neturl "net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dcaf-go/dcaf/engine"
)

//go:embed swagger.html openapi.yaml
var assets embed.FS

// Options of the admin API; a nil *Options mounts everything
type Options struct {
	// UsersEnabled mounts the user management endpoints
	UsersEnabled bool
	// Port of a dedicated admin listener; it replaces the port of the
	// server url shown in the docs
	Port int
}

// Register mounts the admin API under r. The docs and the OpenAPI document
// are served without authentication, everything else requires a user once
// one exists.
func Register(r fiber.Router, serverURL string, eng *engine.Engine, opts *Options) error {
	if opts != nil && opts.Port > 0 {
		serverURL = adaptServerURLPort(serverURL, opts.Port)
	}

	openapiData, err := openAPIDocument(serverURL)
	if err != nil {
		return err
	}
	swaggerHTML, err := assets.ReadFile("swagger.html")
	if err != nil {
		return errors.Wrap(err, "adminapi: failed to read swagger.html")
	}

	r.Get(
		"/openapi.yaml", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, "application/yaml")
			return c.Send(openapiData)
		},
	)

	r.Get(
		"/docs", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTML)
			return c.Send(swaggerHTML)
		},
	)

	backends := eng.Backends()
	r.Use(authMiddleware(backends.Users))
	r.Use(auditMiddleware)

	registerCams(r, eng)
	registerServers(r, eng)
	registerRules(r, eng)
	registerTickets(r, eng)
	registerTicketSettings(r, eng)
	if opts == nil || opts.UsersEnabled {
		registerUsers(r, backends.Users)
	}
	return nil
}

// openAPIDocument returns the embedded OpenAPI document. If serverURL is
// set, it replaces the servers of the document, so that the docs page talks
// to this instance.
func openAPIDocument(serverURL string) ([]byte, error) {
	raw, err := assets.ReadFile("openapi.yaml")
	if err != nil {
		return nil, errors.Wrap(err, "adminapi: failed to read openapi.yaml")
	}
	if serverURL == "" {
		return raw, nil
	}
	var doc yaml.Node
	if err = yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "adminapi: failed to parse openapi.yaml")
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("adminapi: openapi.yaml is not a mapping")
	}
	var servers yaml.Node
	if err = servers.Encode([]map[string]string{{"url": serverURL, "description": "This instance"}}); err != nil {
		return nil, errors.WithStack(err)
	}
	root := doc.Content[0]
	replaced := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "servers" {
			root.Content[i+1] = &servers
			replaced = true
		}
	}
	if !replaced {
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "servers"}, &servers)
	}
	out, err := yaml.Marshal(&doc)
	return out, errors.WithStack(err)
}

// adaptServerURLPort sets the port of serverURL; invalid urls are returned
// unchanged
func adaptServerURLPort(serverURL string, port int) string {
	if serverURL == "" || port <= 0 {
		return serverURL
	}
	u, err := neturl.Parse(serverURL)
	if err != nil || u.Host == "" {
		return serverURL
	}
	u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	return u.String()
}
