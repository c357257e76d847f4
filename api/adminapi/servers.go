package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dcaf-go/dcaf/engine"
	"github.com/dcaf-go/dcaf/storage/model"
)

// serverBody is the representation of a server in requests; the key is
// write only
type serverBody struct {
	Host         string           `json:"host"`
	PreSharedKey string           `json:"pre_shared_key"`
	Resources    []model.Resource `json:"resources"`
}

// serverView is the representation of a server in responses
type serverView struct {
	Host           string           `json:"host"`
	SequenceNumber int              `json:"sequence_number"`
	Resources      []model.Resource `json:"resources"`
	HasKey         bool             `json:"has_pre_shared_key"`
}

func newServerView(info model.ServerInfo) serverView {
	resources := info.Resources
	if resources == nil {
		resources = []model.Resource{}
	}
	return serverView{
		Host:           info.Host,
		SequenceNumber: info.SequenceNumber,
		Resources:      resources,
		HasKey:         info.PreSharedKey != "",
	}
}

func (b serverBody) info() model.ServerInfo {
	return model.ServerInfo{
		Host:         b.Host,
		PreSharedKey: b.PreSharedKey,
		Resources:    b.Resources,
	}
}

func registerServers(r fiber.Router, eng *engine.Engine) {
	g := r.Group("/servers")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			servers, err := eng.ListServers()
			if err != nil {
				return writeError(c, err)
			}
			views := make([]serverView, len(servers))
			for i, s := range servers {
				views[i] = newServerView(s)
			}
			return c.JSON(views)
		},
	)

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req serverBody
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
			}
			if req.Host == "" {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("host is required"))
			}
			info := req.info()
			if err := eng.AddServer(c.UserContext(), info); err != nil {
				return writeError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(newServerView(info))
		},
	)

	g.Get(
		"/:host", func(c *fiber.Ctx) error {
			info, err := eng.GetServer(c.Params("host"))
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(newServerView(*info))
		},
	)

	// Replacing a server increments its sequence number
	g.Put(
		"/:host", func(c *fiber.Ctx) error {
			var req serverBody
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
			}
			req.Host = c.Params("host")
			info, err := eng.UpdateServer(c.UserContext(), req.info())
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(newServerView(*info))
		},
	)

	g.Delete(
		"/:host", func(c *fiber.Ctx) error {
			if err := eng.DeleteServer(c.UserContext(), c.Params("host"), boolQuery(c, "revoke")); err != nil {
				return writeError(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
