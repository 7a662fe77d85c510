package order

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tokenmart/tokenmart/internal/account"
	"github.com/tokenmart/tokenmart/internal/chain"
	"github.com/tokenmart/tokenmart/internal/listing"
)

// Handler exposes cart and redemption HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an order HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type addRequest struct {
	OrderID    string `json:"orderId"`
	UserID     string `json:"userId"`
	ListingID  string `json:"listingId"`
	Quantity   int    `json:"quantity"`
	RedeemCode string `json:"redeemCode"`
}

type approveRequest struct {
	MerchantID string `json:"merchantId"`
	OrderID    string `json:"orderId"`
	Approve    bool   `json:"approve"`
}

type redeemRequest struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}

type orderResponse struct {
	OrderID      string  `json:"orderId"`
	UserID       string  `json:"userId"`
	UserName     string  `json:"userName"`
	MerchantID   string  `json:"merchantId"`
	MerchantName string  `json:"merchantName"`
	ListingID    string  `json:"listingId"`
	ListingName  string  `json:"listingName"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	Status       string  `json:"status"`
	TxSignature  string  `json:"transactionSignature,omitempty"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
	RedeemedAt   string  `json:"redeemedAt,omitempty"`
}

// Add places a listing in the buyer's cart.
func (h *Handler) Add(c *fiber.Ctx) error {
	var req addRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	order, err := h.service.AddToCart(c.UserContext(), AddInput{
		OrderID:    req.OrderID,
		BuyerID:    req.UserID,
		ListingID:  req.ListingID,
		Quantity:   req.Quantity,
		RedeemCode: req.RedeemCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound), errors.Is(err, listing.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrDuplicateOrder):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, listing.ErrInsufficientStock):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(toResponse(order))
}

// Approve lets the merchant accept or reject a pending order.
func (h *Handler) Approve(c *fiber.Ctx) error {
	var req approveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	order, err := h.service.Approve(c.UserContext(), req.MerchantID, req.OrderID, req.Approve)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrNotMerchant):
			return fiber.NewError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrAlreadySettled):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(toResponse(order))
}

// Redeem settles an order on-chain.
func (h *Handler) Redeem(c *fiber.Ctx) error {
	var req redeemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.OrderID == "" {
		return fiber.NewError(http.StatusBadRequest, "orderId is required")
	}

	sig, err := h.service.Redeem(c.UserContext(), RedeemInput{OrderID: req.OrderID, BuyerID: req.UserID})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, account.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrNotBuyer):
			return fiber.NewError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrAlreadySettled):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, chain.ErrInsufficientTokens), errors.Is(err, chain.ErrInsufficientFeeBalance):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"transactionSignature": sig})
}

// Cart returns the buyer's cart projection.
func (h *Handler) Cart(c *fiber.Ctx) error {
	userID := c.Params("userId")
	orders, err := h.service.Cart(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"cart": toResponses(orders)})
}

// MerchantOrders returns the merchant's pending and resolved projections.
func (h *Handler) MerchantOrders(c *fiber.Ctx) error {
	merchantID := c.Params("merchantId")
	pending, recent, err := h.service.MerchantOrders(c.UserContext(), merchantID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"pendingOrders":      toResponses(pending),
		"recentTransactions": toResponses(recent),
	})
}

func toResponse(o Order) orderResponse {
	res := orderResponse{
		OrderID:      o.ID,
		UserID:       o.BuyerID,
		UserName:     o.BuyerName,
		MerchantID:   o.MerchantID,
		MerchantName: o.MerchantName,
		ListingID:    o.ListingID,
		ListingName:  o.ListingName,
		Price:        o.Price,
		Quantity:     o.Quantity,
		Status:       o.Status,
		TxSignature:  o.TxSignature,
		ErrorMessage: o.ErrorMessage,
	}
	if o.RedeemedAt != nil {
		res.RedeemedAt = o.RedeemedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return res
}

func toResponses(orders []Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toResponse(o))
	}
	return out
}
