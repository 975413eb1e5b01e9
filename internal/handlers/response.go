package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/or73/Async-API-Pizza-Delivery/internal/apperr"
)

// Envelope is the body of every response.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// fail writes err with the status of its kind.
func fail(c *fiber.Ctx, err error) error {
	status := apperr.Status(err)
	attrs := []any{
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"kind", apperr.KindOf(err).String(),
		"error", err,
	}
	if status >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed", attrs...)
	} else {
		slog.InfoContext(c.UserContext(), "request rejected", attrs...)
	}
	return respond(c, status, err.Error(), nil)
}

// parseBody decodes a JSON body into out. An empty body leaves out
// untouched.
func parseBody(c *fiber.Ctx, op string, out any) error {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := c.App().Config().JSONDecoder(body, out); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, op, "request body is not valid JSON", err)
	}
	return nil
}

// wantsAll reports whether the query carries a bare "all" flag, as in
// GET /users?all.
func wantsAll(c *fiber.Ctx) bool {
	args := c.Context().QueryArgs()
	return args.Has("all") && len(args.Peek("all")) == 0
}

// MethodNotAllowed answers requests to a known path with an unsupported
// method.
func MethodNotAllowed(c *fiber.Ctx) error {
	return respond(c, fiber.StatusMethodNotAllowed, "Method not allowed", nil)
}

// InvalidPath answers requests to unknown paths.
func InvalidPath(c *fiber.Ctx) error {
	return respond(c, fiber.StatusBadRequest, "Invalid Path", nil)
}

// ErrorHandler renders errors that escape the handlers, such as fiber's
// own routing and body limit errors, in the response envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return respond(c, fe.Code, fe.Message, nil)
	}
	return fail(c, err)
}
