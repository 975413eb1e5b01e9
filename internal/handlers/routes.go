package handlers

import "github.com/gofiber/fiber/v2"

// Routes is implemented by every entity handler.
type Routes interface {
	RegisterRoutes(router fiber.Router)
}

// Mount registers the routes of every handler on router, followed by a
// catch-all answering unknown paths with 400.
func Mount(router fiber.Router, routes ...Routes) {
	for _, r := range routes {
		r.RegisterRoutes(router)
	}
	router.Use(InvalidPath)
}
