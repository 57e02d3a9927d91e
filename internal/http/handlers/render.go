package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "utok/internal/log"
	"utok/internal/services"
)

// Nav tells the client which screen to show next. Reset clears the back
// stack.
type Nav struct {
	Route  string `json:"route"`
	Reset  bool   `json:"reset,omitempty"`
	Params any    `json:"params,omitempty"`
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	return c.Render(tmpl, data)
}

func reply(c *fiber.Ctx, status int, data fiber.Map, nav *Nav) error {
	if data == nil {
		data = fiber.Map{}
	}
	if nav != nil {
		data["nav"] = nav
	}
	return c.Status(status).JSON(data)
}

const genericFailure = "Something went wrong. Please try again."

func problem(c *fiber.Ctx, status int, code, msg string, extra fiber.Map) error {
	body := fiber.Map{"error": code, "message": msg}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// fail maps a service error onto a status and a message the customer can
// read. Internal error text is logged, never returned.
func fail(c *fiber.Ctx, action string, err error) error {
	var ve *services.ValidationError
	var ue *services.UnavailableError
	var re *services.RemoteError
	switch {
	case errors.As(err, &ve):
		applog.Security(c, "validation.fail", map[string]any{"action": action, "field": ve.Field})
		return problem(c, fiber.StatusUnprocessableEntity, "validation", ve.Msg, fiber.Map{"field": ve.Field})
	case errors.Is(err, services.ErrBadCreds):
		return problem(c, fiber.StatusUnauthorized, "invalid_credentials", "Invalid credentials", nil)
	case errors.Is(err, services.ErrUnauthenticated):
		return problem(c, fiber.StatusUnauthorized, "unauthenticated", "Please sign in.", nil)
	case errors.Is(err, services.ErrEmailTaken):
		return problem(c, fiber.StatusConflict, "email_taken", "User already registered.", nil)
	case errors.As(err, &ue):
		return problem(c, fiber.StatusConflict, "service_unavailable", "Services are not yet available for "+ue.Service, nil)
	case errors.Is(err, services.ErrForbidden):
		applog.Security(c, "access.denied.order", map[string]any{"action": action, "id": c.Params("id")})
		return problem(c, fiber.StatusForbidden, "forbidden", "Order not found", nil)
	case errors.Is(err, services.ErrNotFound):
		return problem(c, fiber.StatusNotFound, "not_found", "Not found", nil)
	case errors.Is(err, services.ErrEmptyCart):
		return problem(c, fiber.StatusConflict, "empty_cart", "Your cart is empty.", nil)
	case errors.Is(err, services.ErrNoHandoff):
		return problem(c, fiber.StatusConflict, "no_checkout", "Please check out your cart first.", nil)
	case errors.Is(err, services.ErrNoDraft):
		return problem(c, fiber.StatusConflict, "no_draft", "Open the order for editing first.", nil)
	case errors.Is(err, services.ErrLocationDenied):
		applog.Info(c, "location.denied", nil)
		return problem(c, fiber.StatusForbidden, "location_denied", "Location permission is required.", fiber.Map{"fallback": "manual"})
	case errors.As(err, &re):
		applog.Error(c, action+".fail", err, map[string]any{"op": re.Op})
		return problem(c, fiber.StatusBadGateway, "remote", genericFailure, nil)
	default:
		applog.Error(c, action+".fail", err, nil)
		return problem(c, fiber.StatusInternalServerError, "internal", genericFailure, nil)
	}
}

func badBody(c *fiber.Ctx, action string, err error) error {
	applog.Security(c, "validation.fail", map[string]any{"action": action, "reason": "body", "error": err.Error()})
	return problem(c, fiber.StatusBadRequest, "bad_request", "Please provide valid information.", nil)
}

// ErrorHandler is the app-wide fallback for errors handlers did not map.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < 500 {
		code = fe.Code
		return problem(c, code, "http", fe.Message, nil)
	}
	applog.Error(c, "server.error", err, nil)
	return problem(c, code, "internal", genericFailure, nil)
}
