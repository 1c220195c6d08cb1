package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func GetOrgID(c *fiber.Ctx) string {
	orgID, _ := c.Locals("org_id").(string)
	return orgID
}
