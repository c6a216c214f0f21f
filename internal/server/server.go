package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/andesbank/coreledger/internal/config"
)

// Server wraps the Fiber application for one of the two service binaries.
type Server struct {
	app *fiber.App
	cfg config.Config
}

// New instantiates the HTTP server and delegates route wiring to the
// provided register function, which each binary supplies with its own
// route setup.
func New(cfg config.Config, register func(*fiber.App) error) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	if err := register(app); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
