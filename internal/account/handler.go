package account

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/andesbank/coreledger/internal/config"
)

// Handler exposes account endpoints.
type Handler struct {
	service   *Service
	pageLimit int
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service, pageLimit int) *Handler {
	if pageLimit <= 0 || pageLimit > config.MaxPageLimit {
		pageLimit = config.MaxPageLimit
	}
	return &Handler{service: service, pageLimit: pageLimit}
}

type createRequest struct {
	ClientID       string          `json:"client_id"`
	Number         string          `json:"number"`
	Type           string          `json:"type"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Active         bool            `json:"active"`
}

type updateRequest struct {
	Number string `json:"number"`
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

type accountResponse struct {
	ID             string          `json:"id"`
	ClientID       string          `json:"client_id"`
	Number         string          `json:"number"`
	Type           string          `json:"type"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toResponse(a Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		ClientID:       a.ClientID,
		Number:         a.Number,
		Type:           a.Type,
		OpeningBalance: a.OpeningBalance,
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
	}
}

// Create opens an account.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	created, err := h.service.Create(c.UserContext(), CreateInput{
		ClientID:       req.ClientID,
		Number:         req.Number,
		Type:           req.Type,
		OpeningBalance: req.OpeningBalance,
		Active:         req.Active,
	})
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(created))
}

// Get returns account metadata.
func (h *Handler) Get(c *fiber.Ctx) error {
	a, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(a))
}

// List returns a page of accounts, optionally filtered by client.
func (h *Handler) List(c *fiber.Ctx) error {
	if clientID := c.Query("client_id"); clientID != "" {
		accounts, err := h.service.ListByClient(c.UserContext(), clientID)
		if err != nil {
			return statusError(err)
		}
		return c.Status(http.StatusOK).JSON(responses(accounts))
	}

	limit, offset, err := h.pagination(c)
	if err != nil {
		return err
	}
	accounts, err := h.service.List(c.UserContext(), limit, offset)
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(responses(accounts))
}

// Update changes account metadata.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.service.Update(c.UserContext(), c.Params("id"), UpdateInput{
		Number: req.Number,
		Type:   req.Type,
		Active: req.Active,
	})
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(updated))
}

// Delete removes an account.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func responses(accounts []Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toResponse(a))
	}
	return out
}

func (h *Handler) pagination(c *fiber.Ctx) (limit, offset int, err error) {
	limit = h.pageLimit
	if v := c.Query("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			return 0, 0, fiber.NewError(http.StatusBadRequest, "invalid limit")
		}
		if limit > config.MaxPageLimit {
			return 0, 0, fiber.NewError(http.StatusBadRequest, "page size cannot exceed 100")
		}
	}
	page := 0
	if v := c.Query("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 0 {
			return 0, 0, fiber.NewError(http.StatusBadRequest, "invalid page")
		}
	}
	return limit, page * limit, nil
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrNegativeOpeningBalance),
		errors.Is(err, ErrDuplicateNumber),
		errors.Is(err, ErrNumberRequired),
		errors.Is(err, ErrInvalidClientID):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
