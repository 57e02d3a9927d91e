package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/currency"

	"utok/internal/domain"
	applog "utok/internal/log"
	"utok/internal/services"
	"utok/internal/session"
)

type OrderHandler struct {
	Order    *services.OrderService
	Currency currency.Unit
}

// Pending returns the checkout handoff the customer is about to submit.
func (h *OrderHandler) Pending(c *fiber.Ctx) error {
	hand, err := h.Order.PendingHandoff(sessionID(c))
	if err != nil {
		return fail(c, "order.pending", err)
	}
	return c.JSON(fiber.Map{
		"checkout": hand,
		"display":  domain.Money{Amount: hand.Total, Currency: h.Currency}.String(),
	})
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var in domain.OrderFields
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, "order.place", err)
	}
	o, err := h.Order.Place(sessionID(c), currentUser(c), in)
	if err != nil {
		return fail(c, "order.place", err)
	}
	applog.Audit(c, "order.place", map[string]any{"order_id": o.ID, "total": o.TotalPrice.String()})
	return reply(c, fiber.StatusCreated, fiber.Map{
		"order":   o,
		"message": "Order placed successfully",
	}, &Nav{Route: "Order"})
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	list, err := h.Order.List(currentUser(c))
	if err != nil {
		return fail(c, "order.list", err)
	}
	return c.JSON(fiber.Map{"orders": list})
}

func (h *OrderHandler) Detail(c *fiber.Ctx) error {
	o, err := h.Order.Get(currentUser(c), c.Params("id"))
	if err != nil {
		return fail(c, "order.view", err)
	}
	return c.JSON(fiber.Map{"order": o})
}

// Receipt renders the stored order as a printable page.
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	o, err := h.Order.Get(currentUser(c), c.Params("id"))
	if err != nil {
		return fail(c, "order.receipt", err)
	}
	return render(c, "receipt", fiber.Map{"Order": o, "Lines": o.Items.Lines()})
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Order.Delete(sessionID(c), currentUser(c), id); err != nil {
		return fail(c, "order.delete", err)
	}
	applog.Audit(c, "order.delete", map[string]any{"order_id": id})
	return reply(c, fiber.StatusOK, fiber.Map{"message": "Order deleted"}, &Nav{Route: "Order"})
}

func draftJSON(c *fiber.Ctx, status int, d session.Draft, nav *Nav) error {
	return reply(c, status, fiber.Map{"draft": d}, nav)
}

func (h *OrderHandler) OpenDraft(c *fiber.Ctx) error {
	d, err := h.Order.OpenDraft(sessionID(c), currentUser(c), c.Params("id"))
	if err != nil {
		return fail(c, "order.draft.open", err)
	}
	return draftJSON(c, fiber.StatusOK, d, &Nav{Route: "UpdateOrder", Params: fiber.Map{"id": d.OrderID}})
}

func (h *OrderHandler) Draft(c *fiber.Ctx) error {
	d, err := h.Order.Draft(sessionID(c), c.Params("id"))
	if err != nil {
		return fail(c, "order.draft", err)
	}
	return draftJSON(c, fiber.StatusOK, d, nil)
}

func (h *OrderHandler) PatchDraft(c *fiber.Ctx) error {
	var p services.DraftPatch
	if err := c.BodyParser(&p); err != nil {
		return badBody(c, "order.draft.patch", err)
	}
	d, err := h.Order.PatchDraft(sessionID(c), c.Params("id"), p)
	if err != nil {
		return fail(c, "order.draft.patch", err)
	}
	return draftJSON(c, fiber.StatusOK, d, nil)
}

// rawText keeps what the customer typed: JSON strings are unquoted, anything
// else is kept as its literal text.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	t := strings.TrimSpace(string(raw))
	if t == "null" {
		return ""
	}
	return t
}

func (h *OrderHandler) SetDraftQuantity(c *fiber.Ctx) error {
	var in quantityBody
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, "order.draft.quantity", err)
	}
	d, err := h.Order.SetDraftQuantity(sessionID(c), c.Params("id"), c.Params("name"), rawText(in.Quantity))
	if err != nil {
		return fail(c, "order.draft.quantity", err)
	}
	return draftJSON(c, fiber.StatusOK, d, nil)
}

func (h *OrderHandler) RemoveDraftItem(c *fiber.Ctx) error {
	d, err := h.Order.RemoveDraftItem(sessionID(c), c.Params("id"), c.Params("name"))
	if err != nil {
		return fail(c, "order.draft.remove", err)
	}
	return draftJSON(c, fiber.StatusOK, d, nil)
}

func (h *OrderHandler) SaveDraft(c *fiber.Ctx) error {
	o, err := h.Order.SaveDraft(sessionID(c), currentUser(c), c.Params("id"))
	if err != nil {
		return fail(c, "order.update", err)
	}
	applog.Audit(c, "order.update", map[string]any{"order_id": o.ID})
	return reply(c, fiber.StatusOK, fiber.Map{
		"order":   o,
		"message": "Order updated successfully",
	}, &Nav{Route: "Order"})
}

func (h *OrderHandler) DiscardDraft(c *fiber.Ctx) error {
	if err := h.Order.DiscardDraft(sessionID(c), c.Params("id")); err != nil {
		return fail(c, "order.draft.discard", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
