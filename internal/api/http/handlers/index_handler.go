package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
)

// Index handles GET / with a short endpoint directory.
func Index(serviceName, version string) fiber.Handler {
	endpoints := fiber.Map{
		"auth": fiber.Map{
			"register":       "POST /auth/register",
			"login":          "POST /auth/login",
			"me":             "GET /auth/me",
			"changePassword": "POST /auth/password/change",
		},
		"tickets": fiber.Map{
			"create": "POST /tickets",
			"list":   "GET /tickets",
			"get":    "GET /tickets/:id",
			"update": "PUT /tickets/:id",
			"delete": "DELETE /tickets/:id",
			"stats":  "GET /tickets/stats",
		},
	}
	return func(c *fiber.Ctx) error {
		return c.JSON(dto.OK(serviceName+" API", fiber.Map{
			"version":   version,
			"endpoints": endpoints,
		}))
	}
}
