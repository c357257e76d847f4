package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dcaf-go/dcaf/engine"
	"github.com/dcaf-go/dcaf/storage/model"
)

func registerRules(r fiber.Router, eng *engine.Engine) {
	g := r.Group("/rules")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			rules, err := eng.ListAccessRules()
			if err != nil {
				return writeError(c, err)
			}
			if cam := c.Query("cam"); cam != "" {
				filtered := rules[:0]
				for _, rule := range rules {
					if rule.CamIdentifier == cam {
						filtered = append(filtered, rule)
					}
				}
				rules = filtered
			}
			return c.JSON(rules)
		},
	)

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var rule model.AccessRule
			if err := c.BodyParser(&rule); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
			}
			stored, err := eng.AddAccessRule(rule)
			if err != nil {
				return writeError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(stored)
		},
	)

	g.Get(
		"/:id", func(c *fiber.Ctx) error {
			rule, err := eng.GetAccessRule(c.Params("id"))
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(rule)
		},
	)

	// ?revoke=true revokes the tickets no longer covered by the new rule
	g.Put(
		"/:id", func(c *fiber.Ctx) error {
			var rule model.AccessRule
			if err := c.BodyParser(&rule); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
			}
			rule.ID = c.Params("id")
			stored, err := eng.UpdateAccessRule(rule, boolQuery(c, "revoke"))
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(stored)
		},
	)

	g.Delete(
		"/:id", func(c *fiber.Ctx) error {
			if err := eng.DeleteAccessRule(c.Params("id")); err != nil {
				return writeError(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
