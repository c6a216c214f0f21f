package ledger

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handler exposes movement and balance endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a ledger HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	AccountID string          `json:"account_id"`
	Type      string          `json:"type"`
	Value     decimal.Decimal `json:"value"`
}

type movementResponse struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Type       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	Balance    decimal.Decimal `json:"balance"`
}

func toResponse(m Movement) movementResponse {
	return movementResponse{
		ID:         m.ID,
		AccountID:  m.AccountID,
		OccurredAt: m.OccurredAt,
		Type:       m.Type,
		Value:      m.Value,
		Balance:    m.Balance,
	}
}

// Create records a movement.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	m, err := h.service.CreateMovement(c.UserContext(), req.AccountID, req.Type, req.Value)
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(m))
}

// Balance returns an account's derived balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	accountID := c.Params("id")
	balance, err := h.service.CurrentBalance(c.UserContext(), accountID)
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id": accountID,
		"balance":    balance,
		"timestamp":  time.Now().UTC(),
	})
}

// ByAccount lists an account's movements.
func (h *Handler) ByAccount(c *fiber.Ctx) error {
	movements, err := h.service.MovementsByAccount(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(responses(movements))
}

// ByClient lists the movements across a client's accounts.
func (h *Handler) ByClient(c *fiber.Ctx) error {
	movements, err := h.service.MovementsByClient(c.UserContext(), c.Params("clientId"))
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(responses(movements))
}

// ByClientRange lists a client's movements inside a date range given by the
// RFC 3339 "from" and "to" query parameters.
func (h *Handler) ByClientRange(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return err
	}
	movements, err := h.service.MovementsByClientBetween(c.UserContext(), c.Params("clientId"), from, to)
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(responses(movements))
}

func parseRange(c *fiber.Ctx) (from, to time.Time, err error) {
	from, err = time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(http.StatusBadRequest, "invalid from date")
	}
	to, err = time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(http.StatusBadRequest, "invalid to date")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fiber.NewError(http.StatusBadRequest, "date range is inverted")
	}
	return from, to, nil
}

func responses(movements []Movement) []movementResponse {
	out := make([]movementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, toResponse(m))
	}
	return out
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrInvalidMovementType),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrNonPositiveValue):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
