package handlers

import (
	"github.com/gofiber/fiber/v2"

	"utok/internal/domain"
	"utok/internal/services"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

func (h *CatalogHandler) Services(c *fiber.Ctx) error {
	svcs, err := h.Catalog.Services()
	if err != nil {
		return fail(c, "catalog.services", err)
	}
	return c.JSON(fiber.Map{"services": svcs, "areas": domain.Areas, "paymentMethods": domain.PaymentMethods})
}

// Select answers a tap on a service tile.
func (h *CatalogHandler) Select(c *fiber.Ctx) error {
	svc, err := h.Catalog.SelectService(c.Params("name"))
	if err != nil {
		return fail(c, "catalog.select", err)
	}
	return reply(c, fiber.StatusOK, fiber.Map{"service": svc}, &Nav{Route: "Item", Params: fiber.Map{"service": svc.Name}})
}

func (h *CatalogHandler) Items(c *fiber.Ctx) error {
	items, err := h.Catalog.ListItems(c.Query("q"))
	if err != nil {
		return fail(c, "catalog.items", err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *CatalogHandler) Item(c *fiber.Ctx) error {
	it, err := h.Catalog.GetItem(c.Params("id"))
	if err != nil {
		return fail(c, "catalog.item", err)
	}
	return c.JSON(fiber.Map{"item": it})
}
