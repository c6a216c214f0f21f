package report

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the statement endpoint.
type Handler struct {
	service *Service
}

// NewHandler builds a report HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Statement renders a client's account statement for a date range given by
// the RFC 3339 "from" and "to" query parameters.
func (h *Handler) Statement(c *fiber.Ctx) error {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid from date")
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid to date")
	}
	if to.Before(from) {
		return fiber.NewError(http.StatusBadRequest, "date range is inverted")
	}

	lines, err := h.service.Statement(c.UserContext(), c.Params("clientId"), from, to)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(lines)
}
