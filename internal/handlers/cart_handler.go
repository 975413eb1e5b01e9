package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/or73/Async-API-Pizza-Delivery/internal/middleware"
	"github.com/or73/Async-API-Pizza-Delivery/internal/services"
)

// CartHandler handles HTTP requests for shopping carts.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes registers the shopping cart routes with the Fiber router.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/shoppingCarts", h.HandleCreate)
	router.Get("/shoppingCarts", h.HandleGet)
	router.Put("/shoppingCarts", h.HandleUpdate)
	router.Delete("/shoppingCarts", h.HandleDelete)
	router.All("/shoppingCarts", MethodNotAllowed)
}

// HandleCreate creates the caller's cart or, with ?item and ?qtty, adds a
// line to it.
func (h *CartHandler) HandleCreate(c *fiber.Ctx) error {
	cred := middleware.CredentialsFrom(c)

	item := c.Query("item")
	if item == "" && c.Query("qtty") == "" {
		cart, err := h.service.Create(c.UserContext(), cred)
		if err != nil {
			return fail(c, err)
		}
		return respond(c, fiber.StatusCreated, "Shopping Cart created successfully", cart)
	}

	qtty, _ := strconv.Atoi(c.Query("qtty"))
	cart, err := h.service.AddItem(c.UserContext(), cred, item, qtty)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, "Product added to Shopping Cart successfully", cart)
}

// HandleGet returns the caller's cart, or every cart id for ?all.
func (h *CartHandler) HandleGet(c *fiber.Ctx) error {
	cred := middleware.CredentialsFrom(c)

	if wantsAll(c) {
		ids, err := h.service.ListIDs(c.UserContext(), cred)
		if err != nil {
			return fail(c, err)
		}
		return respond(c, fiber.StatusOK, "Shopping Cart list fetched successfully", ids)
	}

	email := c.Query("email", cred.Email)
	cart, err := h.service.Get(c.UserContext(), cred.Token, email)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "Shopping Cart fetched successfully", cart)
}

type cartUpdateBody struct {
	Items []services.CartLine `json:"items"`
}

// HandleUpdate sets line quantities of the cart named by ?id.
func (h *CartHandler) HandleUpdate(c *fiber.Ctx) error {
	var body cartUpdateBody
	if err := parseBody(c, "carts.updateItems", &body); err != nil {
		return fail(c, err)
	}

	cart, err := h.service.UpdateItems(c.UserContext(), middleware.CredentialsFrom(c), c.Query("id"), body.Items)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, "Shopping Cart was updated successfully", cart)
}

type cartDeleteBody struct {
	Items []string `json:"items"`
}

// HandleDelete removes the listed lines from the cart named by ?id, or the
// whole cart when no lines are listed.
func (h *CartHandler) HandleDelete(c *fiber.Ctx) error {
	var body cartDeleteBody
	if err := parseBody(c, "carts.delete", &body); err != nil {
		return fail(c, err)
	}
	cred := middleware.CredentialsFrom(c)

	if len(body.Items) == 0 {
		if err := h.service.Delete(c.UserContext(), cred, c.Query("id")); err != nil {
			return fail(c, err)
		}
		return respond(c, fiber.StatusOK, "Shopping Cart deleted successfully", fiber.Map{})
	}

	cart, err := h.service.DeleteItems(c.UserContext(), cred, c.Query("id"), body.Items)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, "Shopping Cart items deleted successfully", cart)
}
