package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tokenmart/tokenmart/internal/order"
)

// RegisterOrderRoutes adds cart and redemption endpoints.
func RegisterOrderRoutes(router fiber.Router, h *order.Handler) {
	router.Post("/orders", h.Add)
	router.Post("/orders/approve", h.Approve)
	router.Post("/orders/redeem", h.Redeem)
	router.Get("/users/:userId/cart", h.Cart)
	router.Get("/merchants/:merchantId/orders", h.MerchantOrders)
}
