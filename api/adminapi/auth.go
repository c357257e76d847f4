package adminapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf/storage/model"
)

const localsUser = "admin_user"

// authMiddleware requires HTTP Basic credentials of an enabled admin user as
// soon as at least one user exists
func authMiddleware(users model.UsersStore) fiber.Handler {
	basic := basicauth.New(
		basicauth.Config{
			Realm: "dcaf admin",
			Authorizer: func(username, password string) bool {
				if _, err := users.Authenticate(username, password); err != nil {
					log.WithError(err).WithField("user", username).Info("admin authentication failed")
					return false
				}
				return true
			},
			Unauthorized: func(c *fiber.Ctx) error {
				c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="dcaf admin"`)
				return c.Status(fiber.StatusUnauthorized).JSON(
					Error{
						Error:            "invalid_client",
						ErrorDescription: "valid admin credentials required",
					},
				)
			},
			ContextUsername: localsUser,
		},
	)
	return func(c *fiber.Ctx) error {
		n, err := users.Count()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
		}
		if n == 0 {
			return c.Next()
		}
		return basic(c)
	}
}

// auditMiddleware logs mutating admin requests with the acting user
func auditMiddleware(c *fiber.Ctx) error {
	err := c.Next()
	switch c.Method() {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return err
	}
	user, _ := c.Locals(localsUser).(string)
	log.WithFields(
		log.Fields{
			"user":   user,
			"method": c.Method(),
			"path":   c.Path(),
			"status": c.Response().StatusCode(),
		},
	).Info("admin change")
	return err
}
