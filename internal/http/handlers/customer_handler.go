package handlers

import (
	"github.com/gofiber/fiber/v2"

	"kioskpos/internal/services"
)

type CustomerHandler struct {
	Kiosk *services.KioskService
}

// GET /api/v1/customers feeds the checkout picker with "[CODE] NAME"
// entries, the format checkout parses back.
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	choices, err := h.Kiosk.CustomerChoices()
	if err != nil {
		return failJSON(c, "customers.list.fail", err)
	}
	return c.JSON(fiber.Map{"customers": choices})
}
