package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/or73/Async-API-Pizza-Delivery/internal/services"
)

// TokenHandler handles HTTP requests for session tokens.
type TokenHandler struct {
	service *services.TokenService
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(service *services.TokenService) *TokenHandler {
	return &TokenHandler{service: service}
}

// RegisterRoutes registers the token routes with the Fiber router.
func (h *TokenHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/tokens", h.HandleLogin)
	router.Get("/tokens", h.HandleGet)
	router.Put("/tokens", h.HandleRefresh)
	router.Delete("/tokens", h.HandleDelete)
	router.All("/tokens", MethodNotAllowed)
}

// HandleLogin checks email and password and issues a token.
func (h *TokenHandler) HandleLogin(c *fiber.Ctx) error {
	var in services.LoginInput
	if err := parseBody(c, "tokens.login", &in); err != nil {
		return fail(c, err)
	}

	token, err := h.service.Login(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, "Token created successfully", token.View())
}

// HandleGet returns the token named by ?id, or every token for ?all.
func (h *TokenHandler) HandleGet(c *fiber.Ctx) error {
	if wantsAll(c) {
		tokens, err := h.service.List(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return respond(c, fiber.StatusOK, "Token list fetched successfully", tokens)
	}

	token, err := h.service.Get(c.UserContext(), c.Query("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "Token fetched successfully", token.View())
}

// HandleRefresh extends the token named by ?id.
func (h *TokenHandler) HandleRefresh(c *fiber.Ctx) error {
	token, err := h.service.Refresh(c.UserContext(), c.Query("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, "Token time has been reset successfully", token.View())
}

// HandleDelete revokes the token named by ?id.
func (h *TokenHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Query("id")); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "Token deleted successfully", fiber.Map{})
}
