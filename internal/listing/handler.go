package listing

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tokenmart/tokenmart/internal/account"
)

// Handler exposes listing HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a listing HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	MerchantID string  `json:"merchantId"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

type listingResponse struct {
	ID         string  `json:"id"`
	MerchantID string  `json:"merchantId"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	Active     bool    `json:"active"`
}

// Create adds a listing to the merchant's inventory.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	listing, err := h.service.Create(c.UserContext(), CreateInput{
		MerchantID: req.MerchantID,
		Name:       req.Name,
		Category:   req.Category,
		Price:      req.Price,
		Quantity:   req.Quantity,
	})
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(toResponse(listing))
}

// ByMerchant lists a merchant's inventory.
func (h *Handler) ByMerchant(c *fiber.Ctx) error {
	merchantID := c.Params("merchantId")
	listings, err := h.service.ListByMerchant(c.UserContext(), merchantID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, toResponse(l))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"listings": out})
}

func toResponse(l Listing) listingResponse {
	return listingResponse{
		ID:         l.ID,
		MerchantID: l.MerchantID,
		Name:       l.Name,
		Category:   l.Category,
		Price:      l.Price,
		Quantity:   l.Quantity,
		Active:     l.Active,
	}
}
