package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "utok/internal/log"
	"utok/internal/services"
	"utok/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type signInBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var in services.SignUpInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, "auth.signup", err)
	}
	u, err := h.Auth.SignUp(in)
	if err != nil {
		if email, ok := validate.Email(in.Email); ok {
			applog.Security(c, "auth.signup.fail", map[string]any{"email": email})
		}
		return fail(c, "auth.signup", err)
	}
	applog.Audit(c, "auth.signup.success", map[string]any{"uid": u.ID})
	return reply(c, fiber.StatusCreated, fiber.Map{"user": u}, &Nav{Route: "SignIn"})
}

func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var in signInBody
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, "auth.login", err)
	}
	res, err := h.Auth.SignIn(in.Email, in.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email})
		return fail(c, "auth.login", err)
	}
	c.Locals("uid", res.User.ID)
	applog.Audit(c, "auth.login.success", map[string]any{"email": res.User.Email})
	return reply(c, fiber.StatusOK, fiber.Map{"token": res.Token, "user": res.User}, &Nav{Route: "Main", Reset: true})
}

func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	if err := h.Auth.SignOut(sessionID(c)); err != nil {
		return fail(c, "auth.logout", err)
	}
	applog.Audit(c, "auth.logout", nil)
	return reply(c, fiber.StatusOK, nil, &Nav{Route: "SignIn", Reset: true})
}

// Me feeds the home greeting.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u := currentUser(c)
	name := u.Name
	if name == "" {
		name = "Unknown"
	}
	return c.JSON(fiber.Map{"user": u, "displayName": name})
}

type passwordBody struct {
	Password string `json:"password"`
	Confirm  string `json:"confirmPassword"`
}

func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	var in passwordBody
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, "auth.password", err)
	}
	if err := h.Auth.UpdatePassword(currentUser(c).ID, in.Password, in.Confirm); err != nil {
		return fail(c, "auth.password", err)
	}
	applog.Audit(c, "auth.password.update", nil)
	return reply(c, fiber.StatusOK, fiber.Map{"message": "Password updated."}, nil)
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	if err := h.Auth.DeleteUser(currentUser(c).ID); err != nil {
		return fail(c, "auth.delete", err)
	}
	applog.Audit(c, "auth.delete", nil)
	return reply(c, fiber.StatusOK, nil, &Nav{Route: "SignIn", Reset: true})
}
