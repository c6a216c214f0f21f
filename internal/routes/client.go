package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/andesbank/coreledger/internal/client"
	"github.com/andesbank/coreledger/internal/events"
	"github.com/andesbank/coreledger/internal/middleware"
)

// SetupClient wires the client service: client lifecycle endpoints backed by
// the identity-owning repository and the event publisher.
func SetupClient(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var repo client.Repository
	if d.DB != nil {
		repo = client.NewPostgresRepository(d.DB)
	} else {
		repo = client.NewMemoryRepository()
	}

	var publisher events.Publisher
	if d.Cache != nil {
		publisher = events.NewStreamPublisher(d.Cache, d.Logger)
	} else {
		publisher = events.NewLogPublisher(d.Logger)
	}

	svc := client.NewService(repo, publisher, d.Logger)
	handler := client.NewHandler(svc, d.Cfg.PageLimit)

	api := app.Group("/api/v1")
	api.Post("/clients", handler.Create)
	api.Post("/clients/login", handler.Login)
	api.Get("/clients", handler.List)
	api.Get("/clients/active", handler.ListActive)
	api.Get("/clients/identification/:identification", handler.GetByIdentification)
	api.Get("/clients/:id", handler.Get)
	api.Put("/clients/:id", handler.Update)
	api.Delete("/clients/:id", handler.Delete)

	return nil
}
