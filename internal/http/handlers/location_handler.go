package handlers

import (
	"github.com/gofiber/fiber/v2"

	"utok/internal/services"
)

type LocationHandler struct {
	Location *services.LocationService
}

// Resolve is called by the checkout screen after asking for the device
// position. A 403 tells the client to fall back to manual entry.
func (h *LocationHandler) Resolve(c *fiber.Ctx) error {
	var in services.LocationInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, "location.resolve", err)
	}
	loc, err := h.Location.Resolve(in)
	if err != nil {
		return fail(c, "location.resolve", err)
	}
	return c.JSON(loc)
}
