package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/currency"

	"utok/internal/domain"
	applog "utok/internal/log"
	"utok/internal/services"
)

type CartHandler struct {
	Cart     *services.CartService
	Order    *services.OrderService
	Currency currency.Unit
}

func (h *CartHandler) view(c *fiber.Ctx, v services.CartView, extra fiber.Map) error {
	body := fiber.Map{
		"cart":    v,
		"display": domain.Money{Amount: v.Total, Currency: h.Currency}.String(),
	}
	for k, x := range extra {
		body[k] = x
	}
	return c.JSON(body)
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	v, err := h.Cart.View(sessionID(c))
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return h.view(c, v, nil)
}

// Add is the item screen's add button: it puts the item in once and
// decrements a line that is already there.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	r, err := h.Cart.Add(sessionID(c), c.Params("id"))
	if err != nil {
		return fail(c, "cart.add", err)
	}
	applog.Info(c, "cart.add", map[string]any{"item": c.Params("id"), "qty": r.Quantity})
	return h.view(c, r.Cart, fiber.Map{"present": r.Present, "quantity": r.Quantity})
}

func (h *CartHandler) Increment(c *fiber.Ctx) error {
	v, err := h.Cart.Increment(sessionID(c), c.Params("id"))
	if err != nil {
		return fail(c, "cart.increment", err)
	}
	return h.view(c, v, nil)
}

func (h *CartHandler) Decrement(c *fiber.Ctx) error {
	v, err := h.Cart.Decrement(sessionID(c), c.Params("id"))
	if err != nil {
		return fail(c, "cart.decrement", err)
	}
	return h.view(c, v, nil)
}

type quantityBody struct {
	Quantity json.RawMessage `json:"quantity"`
}

// SetQuantity accepts whatever the quantity field held; unparseable input
// becomes 1.
func (h *CartHandler) SetQuantity(c *fiber.Ctx) error {
	var in quantityBody
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, "cart.quantity", err)
	}
	v, err := h.Cart.SetQuantity(sessionID(c), c.Params("id"), in.Quantity)
	if err != nil {
		return fail(c, "cart.quantity", err)
	}
	return h.view(c, v, nil)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	v, err := h.Cart.Remove(sessionID(c), c.Params("id"))
	if err != nil {
		return fail(c, "cart.remove", err)
	}
	return h.view(c, v, nil)
}

// Checkout freezes the cart into the handoff the checkout screen submits.
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	hand, err := h.Order.Checkout(sessionID(c))
	if err != nil {
		return fail(c, "cart.checkout", err)
	}
	applog.Info(c, "cart.checkout", map[string]any{"lines": len(hand.Lines), "total": hand.Total.String()})
	return reply(c, fiber.StatusOK, fiber.Map{
		"checkout": hand,
		"display":  domain.Money{Amount: hand.Total, Currency: h.Currency}.String(),
	}, &Nav{Route: "Checkout"})
}
