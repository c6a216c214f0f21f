package client

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/andesbank/coreledger/internal/config"
)

// Handler exposes client endpoints.
type Handler struct {
	service   *Service
	pageLimit int
}

// NewHandler constructs a client HTTP handler.
func NewHandler(service *Service, pageLimit int) *Handler {
	if pageLimit <= 0 || pageLimit > config.MaxPageLimit {
		pageLimit = config.MaxPageLimit
	}
	return &Handler{service: service, pageLimit: pageLimit}
}

type clientRequest struct {
	Name           string `json:"name"`
	Gender         string `json:"gender"`
	Age            int    `json:"age"`
	Identification string `json:"identification"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
	Active         bool   `json:"active"`
}

type clientResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Gender         string `json:"gender,omitempty"`
	Age            int    `json:"age,omitempty"`
	Identification string `json:"identification"`
	Address        string `json:"address,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Active         bool   `json:"active"`
}

// The password hash never leaves the service.
func toResponse(c Client) clientResponse {
	return clientResponse{
		ID:             c.ID,
		Name:           c.Name,
		Gender:         c.Gender,
		Age:            c.Age,
		Identification: c.Identification,
		Address:        c.Address,
		Phone:          c.Phone,
		Active:         c.Active,
	}
}

// Create registers a client.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req clientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	created, err := h.service.Create(c.UserContext(), inputFromRequest(req))
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(created))
}

// Get returns a client by id.
func (h *Handler) Get(c *fiber.Ctx) error {
	cl, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(cl))
}

// GetByIdentification returns a client by identification number.
func (h *Handler) GetByIdentification(c *fiber.Ctx) error {
	cl, err := h.service.GetByIdentification(c.UserContext(), c.Params("identification"))
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(cl))
}

// List returns a page of clients.
func (h *Handler) List(c *fiber.Ctx) error {
	limit, offset, err := h.pagination(c)
	if err != nil {
		return err
	}
	clients, err := h.service.List(c.UserContext(), limit, offset)
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(responses(clients))
}

// ListActive returns a page of active clients.
func (h *Handler) ListActive(c *fiber.Ctx) error {
	limit, offset, err := h.pagination(c)
	if err != nil {
		return err
	}
	clients, err := h.service.ListActive(c.UserContext(), limit, offset)
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(responses(clients))
}

// Update overwrites a client profile.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req clientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.service.Update(c.UserContext(), c.Params("id"), inputFromRequest(req))
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(updated))
}

// Delete removes a client.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

type loginRequest struct {
	Identification string `json:"identification"`
	Password       string `json:"password"`
}

// Login verifies a credential and returns the client profile.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	cl, err := h.service.Authenticate(c.UserContext(), req.Identification, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(cl))
}

func inputFromRequest(req clientRequest) Input {
	return Input{
		Name:           req.Name,
		Gender:         req.Gender,
		Age:            req.Age,
		Identification: req.Identification,
		Address:        req.Address,
		Phone:          req.Phone,
		Password:       req.Password,
		Active:         req.Active,
	}
}

func responses(clients []Client) []clientResponse {
	out := make([]clientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, toResponse(c))
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
	case errors.Is(err, ErrDuplicateIdentification), errors.Is(err, ErrPasswordRequired):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
