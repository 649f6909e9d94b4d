package server

import (
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parseID extracts a positive numeric path parameter.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid " + name + " parameter")
	}
	return uint(id), nil
}
