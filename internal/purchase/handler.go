package purchase

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tokenmart/tokenmart/internal/account"
	"github.com/tokenmart/tokenmart/internal/chain"
)

// Handler exposes purchase HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a purchase HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	RequestID     string  `json:"requestId"`
	UserID        string  `json:"userId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"paymentMethod"`
	CardNumber    string  `json:"cardNumber,omitempty"`
	CardExpiry    string  `json:"cardExpiry,omitempty"`
	CardCVV       string  `json:"cardCvv,omitempty"`
}

type approveRequest struct {
	RequestID string `json:"requestId"`
}

type requestResponse struct {
	RequestID     string  `json:"requestId"`
	UserID        string  `json:"userId"`
	WalletAddress string  `json:"walletAddress"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"paymentMethod"`
	Status        string  `json:"status"`
	TxSignature   string  `json:"transactionSignature,omitempty"`
	ErrorMessage  string  `json:"errorMessage,omitempty"`
	ProcessedAt   string  `json:"processedAt,omitempty"`
}

// Create registers a purchase and, for card payments, issues immediately.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	request, err := h.service.Create(c.UserContext(), CreateInput{
		RequestID:     req.RequestID,
		BuyerID:       req.UserID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		Card:          Card{Number: req.CardNumber, Expiry: req.CardExpiry, CVV: req.CardCVV},
	})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrDuplicateRequest):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrNoWallet):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(toResponse(request))
}

// Approve triggers issuance for an approved bank-transfer purchase.
func (h *Handler) Approve(c *fiber.Ctx) error {
	var req approveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.RequestID == "" {
		return fiber.NewError(http.StatusBadRequest, "requestId is required")
	}

	sig, err := h.service.Approve(c.UserContext(), req.RequestID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyProcessed):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, chain.ErrInsufficientTokens), errors.Is(err, chain.ErrInsufficientFeeBalance):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"transactionSignature": sig})
}

// History returns the buyer's purchase requests.
func (h *Handler) History(c *fiber.Ctx) error {
	userID := c.Params("userId")
	requests, err := h.service.History(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]requestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toResponse(req))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"purchases": out})
}

func toResponse(r Request) requestResponse {
	res := requestResponse{
		RequestID:     r.ID,
		UserID:        r.BuyerID,
		WalletAddress: r.WalletAddress,
		Amount:        r.Amount,
		Currency:      r.Currency,
		PaymentMethod: r.PaymentMethod,
		Status:        r.Status,
		TxSignature:   r.TxSignature,
		ErrorMessage:  r.ErrorMessage,
	}
	if r.ProcessedAt != nil {
		res.ProcessedAt = r.ProcessedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return res
}
