package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/andesbank/coreledger/internal/account"
	"github.com/andesbank/coreledger/internal/ledger"
	"github.com/andesbank/coreledger/internal/lookup"
	"github.com/andesbank/coreledger/internal/middleware"
	"github.com/andesbank/coreledger/internal/report"
)

// SetupAccount wires the account service: account metadata, the movement
// log, derived balances, and guarded statement reporting. The identity event
// consumer runs outside the HTTP surface and is started by main.
func SetupAccount(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var accountRepo account.Repository
	var movementStore ledger.Store
	if d.DB != nil {
		accountRepo = account.NewPostgresRepository(d.DB)
		movementStore = ledger.NewPostgresStore(d.DB)
	} else {
		accountRepo = account.NewMemoryRepository()
		movementStore = ledger.NewMemoryStore()
	}

	accountSvc := account.NewService(accountRepo, d.Logger)
	ledgerSvc := ledger.NewService(movementStore, d.Logger)
	guard := lookup.NewGuard(d.Cfg.ClientServiceURL, d.Cfg.LookupTimeout, d.Logger)
	reportSvc := report.NewService(movementStore, accountRepo, guard, d.Logger)

	accountHandler := account.NewHandler(accountSvc, d.Cfg.PageLimit)
	ledgerHandler := ledger.NewHandler(ledgerSvc)
	reportHandler := report.NewHandler(reportSvc)

	api := app.Group("/api/v1")
	api.Post("/accounts", accountHandler.Create)
	api.Get("/accounts", accountHandler.List)
	api.Get("/accounts/:id", accountHandler.Get)
	api.Get("/accounts/:id/balance", ledgerHandler.Balance)
	api.Put("/accounts/:id", accountHandler.Update)
	api.Delete("/accounts/:id", accountHandler.Delete)

	api.Post("/movements", ledgerHandler.Create)
	api.Get("/movements/account/:accountId", ledgerHandler.ByAccount)
	api.Get("/movements/client/:clientId", ledgerHandler.ByClient)
	api.Get("/movements/client/:clientId/range", ledgerHandler.ByClientRange)

	api.Get("/reports/statement/:clientId", reportHandler.Statement)

	return nil
}
