package account

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tokenmart/tokenmart/internal/seedvault"
)

// Handler exposes account and custodial-wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type walletRequest struct {
	AccountID   string `json:"accountId"`
	AccountKind string `json:"accountKind"`
}

// Signup registers a new account.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	acct, err := h.service.Signup(c.UserContext(), SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"id":         acct.ID,
		"role":       acct.Role,
		"name":       acct.Name,
		"email":      acct.Email,
		"created_at": acct.CreatedAt,
	})
}

// ProvisionWallet creates the account's custodial wallet and returns the
// plaintext mnemonic exactly once.
func (h *Handler) ProvisionWallet(c *fiber.Ctx) error {
	var req walletRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.AccountID == "" {
		return fiber.NewError(http.StatusBadRequest, "accountId is required")
	}

	res, err := h.service.ProvisionWallet(c.UserContext(), req.AccountID, req.AccountKind)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrWalletExists):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"walletAddress": res.WalletAddress,
		"mnemonic":      res.Mnemonic,
	})
}

// RevealSeed returns the decrypted mnemonic to its owner.
func (h *Handler) RevealSeed(c *fiber.Ctx) error {
	var req walletRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.AccountID == "" {
		return fiber.NewError(http.StatusBadRequest, "accountId is required")
	}

	mnemonic, err := h.service.RevealSeed(c.UserContext(), req.AccountID, req.AccountKind)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrSeedNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, seedvault.ErrDecrypt):
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"mnemonic": mnemonic})
}
