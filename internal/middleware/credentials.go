package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/or73/Async-API-Pizza-Delivery/internal/services"
)

const credentialsKey = "credentials"

// Credentials is a Fiber middleware that reads the email and token request
// headers and stores them in the context for subsequent handlers. It does
// not authenticate; each service validates the token it needs.
func Credentials() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(credentialsKey, fromHeaders(c))
		return c.Next()
	}
}

// CredentialsFrom returns the credentials stored by Credentials, reading
// the headers directly when the middleware did not run.
func CredentialsFrom(c *fiber.Ctx) services.Credentials {
	if cred, ok := c.Locals(credentialsKey).(services.Credentials); ok {
		return cred
	}
	return fromHeaders(c)
}

func fromHeaders(c *fiber.Ctx) services.Credentials {
	return services.Credentials{
		Email: strings.TrimSpace(c.Get("email")),
		Token: strings.TrimSpace(c.Get("token")),
	}
}
