package cashout

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tokenmart/tokenmart/internal/account"
	"github.com/tokenmart/tokenmart/internal/chain"
)

// Handler exposes cash-out HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a cash-out HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	RequestID  string  `json:"requestId"`
	MerchantID string  `json:"merchantId"`
	Amount     float64 `json:"amount"`
}

type settleRequest struct {
	RequestID string `json:"requestId"`
}

type requestResponse struct {
	RequestID    string  `json:"requestId"`
	MerchantID   string  `json:"merchantId"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status"`
	TxSignature  string  `json:"transactionSignature,omitempty"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
	ProcessedAt  string  `json:"processedAt,omitempty"`
}

// Create registers a pending cash-out request.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	request, err := h.service.Create(c.UserContext(), CreateInput{
		RequestID:  req.RequestID,
		MerchantID: req.MerchantID,
		Amount:     req.Amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrNotMerchant):
			return fiber.NewError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrDuplicateRequest):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(toResponse(request))
}

// Settle executes the cash-out settlement for a pending request.
func (h *Handler) Settle(c *fiber.Ctx) error {
	var req settleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.RequestID == "" {
		return fiber.NewError(http.StatusBadRequest, "requestId is required")
	}

	sig, err := h.service.Settle(c.UserContext(), req.RequestID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, account.ErrNotFound):
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

// History returns the merchant's cash-out requests.
func (h *Handler) History(c *fiber.Ctx) error {
	merchantID := c.Params("merchantId")
	requests, err := h.service.History(c.UserContext(), merchantID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]requestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toResponse(req))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"cashouts": out})
}

func toResponse(r Request) requestResponse {
	res := requestResponse{
		RequestID:    r.ID,
		MerchantID:   r.MerchantID,
		Amount:       r.Amount,
		Status:       r.Status,
		TxSignature:  r.TxSignature,
		ErrorMessage: r.ErrorMessage,
	}
	if r.ProcessedAt != nil {
		res.ProcessedAt = r.ProcessedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return res
}
