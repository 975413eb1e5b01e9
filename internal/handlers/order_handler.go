package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/or73/Async-API-Pizza-Delivery/internal/middleware"
	"github.com/or73/Async-API-Pizza-Delivery/internal/services"
)

// OrderHandler handles HTTP requests for purchase orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes registers the purchase order routes with the Fiber router.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/purchaseOrders", h.HandleCreate)
	router.Get("/purchaseOrders", h.HandleGet)
	router.All("/purchaseOrders", MethodNotAllowed)
}

// HandleCreate pays for the cart of ?email and stores the order.
func (h *OrderHandler) HandleCreate(c *fiber.Ctx) error {
	order, err := h.service.Create(c.UserContext(), middleware.CredentialsFrom(c).Token, c.Query("email"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, "Purchase order created successfully", order)
}

// HandleGet returns the current order of ?email.
func (h *OrderHandler) HandleGet(c *fiber.Ctx) error {
	order, err := h.service.Get(c.UserContext(), middleware.CredentialsFrom(c).Token, c.Query("email"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "Purchase order fetched successfully", order)
}
