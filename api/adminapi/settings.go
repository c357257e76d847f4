package adminapi

import (
	"github.com/gofiber/fiber/v2"
	"tideland.dev/go/slices"

	"github.com/dcaf-go/dcaf/engine"
	"github.com/dcaf-go/dcaf/mac"
)

func macMethodNames() []string {
	names := make([]string, len(mac.Methods))
	for i, m := range mac.Methods {
		names[i] = m.String()
	}
	return names
}

func registerTicketSettings(r fiber.Router, eng *engine.Engine) {
	g := r.Group("/settings/ticket")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			s, err := eng.TicketSettings()
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(s)
		},
	)

	g.Put(
		"/", func(c *fiber.Ctx) error {
			var req engine.TicketSettings
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
			}
			if req.MacMethod != "" && len(slices.Subtract([]string{req.MacMethod}, macMethodNames())) > 0 {
				return c.Status(fiber.StatusBadRequest).JSON(
					ErrorInvalidRequest("unsupported mac method: " + req.MacMethod),
				)
			}
			if err := eng.SetTicketSettings(req); err != nil {
				return writeError(c, err)
			}
			s, err := eng.TicketSettings()
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(s)
		},
	)
}
