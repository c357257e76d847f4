package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dcaf-go/dcaf/storage/model"
)

type newUser struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type userPatch struct {
	DisplayName *string `json:"display_name"`
	Password    *string `json:"password"`
	Disabled    *bool   `json:"disabled"`
}

// isSelf reports whether the request targets the account it is authenticated
// with
func isSelf(c *fiber.Ctx) bool {
	me, _ := c.Locals(localsUser).(string)
	return me != "" && me == c.Params("username")
}

func registerUsers(r fiber.Router, users model.UsersStore) {
	g := r.Group("/users")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			all, err := users.List()
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(all)
		},
	)
	g.Post(
		"/", func(c *fiber.Ctx) error {
			var in newUser
			if err := c.BodyParser(&in); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
			}
			if in.Username == "" || in.Password == "" {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("username and password are required"))
			}
			u, err := users.Create(in.Username, in.Password, in.DisplayName)
			if err != nil {
				return writeError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(u)
		},
	)
	g.Get(
		"/:username", func(c *fiber.Ctx) error {
			u, err := users.Get(c.Params("username"))
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(u)
		},
	)
	g.Put(
		"/:username", func(c *fiber.Ctx) error {
			var p userPatch
			if err := c.BodyParser(&p); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
			}
			if p.Password != nil && *p.Password == "" {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("password cannot be empty"))
			}
			if p.Disabled != nil && *p.Disabled && isSelf(c) {
				return c.Status(fiber.StatusConflict).JSON(ErrorConflict("cannot disable the account in use"))
			}
			u, err := users.Update(c.Params("username"), p.DisplayName, p.Password, p.Disabled)
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(u)
		},
	)
	g.Delete(
		"/:username", func(c *fiber.Ctx) error {
			if isSelf(c) {
				return c.Status(fiber.StatusConflict).JSON(ErrorConflict("cannot delete the account in use"))
			}
			if err := users.Delete(c.Params("username")); err != nil {
				return writeError(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
