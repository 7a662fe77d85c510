package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tokenmart/tokenmart/internal/account"
)

// RegisterAccountRoutes adds signup and custodial wallet endpoints.
func RegisterAccountRoutes(router fiber.Router, h *account.Handler) {
	router.Post("/accounts", h.Signup)
	router.Post("/wallets", h.ProvisionWallet)
	router.Post("/wallets/seed", h.RevealSeed)
}
