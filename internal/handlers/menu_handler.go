package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/or73/Async-API-Pizza-Delivery/internal/middleware"
	"github.com/or73/Async-API-Pizza-Delivery/internal/services"
)

// MenuHandler handles HTTP requests for menu items.
type MenuHandler struct {
	service *services.MenuService
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(service *services.MenuService) *MenuHandler {
	return &MenuHandler{service: service}
}

// RegisterRoutes registers the menu routes with the Fiber router.
func (h *MenuHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/menus", h.HandleCreate)
	router.Get("/menus", h.HandleGet)
	router.Put("/menus", h.HandleUpdate)
	router.Delete("/menus", h.HandleDelete)
	router.All("/menus", MethodNotAllowed)
}

// HandleCreate adds an item to the menu.
func (h *MenuHandler) HandleCreate(c *fiber.Ctx) error {
	var in services.MenuItemInput
	if err := parseBody(c, "menus.create", &in); err != nil {
		return fail(c, err)
	}

	item, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, "Item created successfully", item)
}

// HandleGet returns the item named by ?name, or the whole menu for ?all.
func (h *MenuHandler) HandleGet(c *fiber.Ctx) error {
	if wantsAll(c) {
		entries, err := h.service.List(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return respond(c, fiber.StatusOK, "List of menu items fetched successfully", entries)
	}

	item, err := h.service.Get(c.UserContext(), c.Query("name"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "Item fetched successfully", item)
}

// HandleUpdate changes the price of the item named by ?name.
func (h *MenuHandler) HandleUpdate(c *fiber.Ctx) error {
	var in services.MenuUpdateInput
	if err := parseBody(c, "menus.update", &in); err != nil {
		return fail(c, err)
	}

	item, err := h.service.Update(c.UserContext(), middleware.CredentialsFrom(c), c.Query("name"), in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, "Item of menu updated successfully", item)
}

// HandleDelete removes the item named by ?name.
func (h *MenuHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.CredentialsFrom(c), c.Query("name")); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "Item deleted successfully", fiber.Map{})
}
