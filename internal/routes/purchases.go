package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tokenmart/tokenmart/internal/purchase"
)

// RegisterPurchaseRoutes adds fiat on-ramp endpoints.
func RegisterPurchaseRoutes(router fiber.Router, h *purchase.Handler) {
	router.Post("/purchases", h.Create)
	router.Post("/purchases/approve", h.Approve)
	router.Get("/users/:userId/purchases", h.History)
}
