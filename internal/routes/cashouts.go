package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tokenmart/tokenmart/internal/cashout"
)

// RegisterCashoutRoutes adds merchant cash-out endpoints.
func RegisterCashoutRoutes(router fiber.Router, h *cashout.Handler) {
	router.Post("/cashouts", h.Create)
	router.Post("/cashouts/settle", h.Settle)
	router.Get("/merchants/:merchantId/cashouts", h.History)
}
