package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dcaf-go/dcaf/engine"
	"github.com/dcaf-go/dcaf/storage/model"
)

func registerCams(r fiber.Router, eng *engine.Engine) {
	g := r.Group("/cams")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			cams, err := eng.ListCams()
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(cams)
		},
	)

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var cam model.CamInfo
			if err := c.BodyParser(&cam); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
			}
			if cam.Identifier == "" {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("id is required"))
			}
			if err := eng.AddCam(cam); err != nil {
				return writeError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(cam)
		},
	)

	g.Get(
		"/:id", func(c *fiber.Ctx) error {
			cam, err := eng.GetCam(c.Params("id"))
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(cam)
		},
	)

	g.Put(
		"/:id", func(c *fiber.Ctx) error {
			var cam model.CamInfo
			if err := c.BodyParser(&cam); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
			}
			cam.Identifier = c.Params("id")
			if err := eng.UpdateCam(cam); err != nil {
				return writeError(c, err)
			}
			return c.JSON(cam)
		},
	)

	// ?revoke=true also revokes the tickets of the cam
	g.Delete(
		"/:id", func(c *fiber.Ctx) error {
			if err := eng.DeleteCam(c.Params("id"), boolQuery(c, "revoke")); err != nil {
				return writeError(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
