package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tokenmart/tokenmart/internal/listing"
)

// RegisterListingRoutes adds merchant listing endpoints.
func RegisterListingRoutes(router fiber.Router, h *listing.Handler) {
	router.Post("/listings", h.Create)
	router.Get("/merchants/:merchantId/listings", h.ByMerchant)
}
