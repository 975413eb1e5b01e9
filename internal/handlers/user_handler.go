package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/or73/Async-API-Pizza-Delivery/internal/middleware"
	"github.com/or73/Async-API-Pizza-Delivery/internal/services"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes registers the user routes with the Fiber router.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/users", h.HandleCreate)
	router.Get("/users", h.HandleGet)
	router.Put("/users", h.HandleUpdate)
	router.Delete("/users", h.HandleDelete)
	router.All("/users", MethodNotAllowed)
}

// HandleCreate registers a user and logs them in.
func (h *UserHandler) HandleCreate(c *fiber.Ctx) error {
	var in services.CreateUserInput
	if err := parseBody(c, "users.create", &in); err != nil {
		return fail(c, err)
	}

	created, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}

	data := fiber.Map{"user": created.User}
	if created.Token == nil {
		return respond(c, fiber.StatusCreated, "User created successfully, but the token could not be created, please log in", data)
	}
	data["token"] = created.Token.View()
	return respond(c, fiber.StatusCreated, "User created successfully", data)
}

// HandleGet returns the user named by ?email, or every user for ?all.
func (h *UserHandler) HandleGet(c *fiber.Ctx) error {
	cred := middleware.CredentialsFrom(c)

	if wantsAll(c) {
		users, err := h.service.List(c.UserContext(), cred)
		if err != nil {
			return fail(c, err)
		}
		return respond(c, fiber.StatusOK, "List of users fetched successfully", users)
	}

	user, err := h.service.Get(c.UserContext(), cred.Token, c.Query("email"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "User fetched successfully", user)
}

// HandleUpdate changes the user named by ?email.
func (h *UserHandler) HandleUpdate(c *fiber.Ctx) error {
	var in services.UpdateUserInput
	if err := parseBody(c, "users.update", &in); err != nil {
		return fail(c, err)
	}

	user, err := h.service.Update(c.UserContext(), middleware.CredentialsFrom(c).Token, c.Query("email"), in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, "User updated successfully", user)
}

// HandleDelete removes the user named by ?email with its token and cart.
func (h *UserHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.CredentialsFrom(c).Token, c.Query("email")); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "User deleted successfully", fiber.Map{})
}
