package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/andesbank/coreledger/internal/account"
	"github.com/andesbank/coreledger/internal/config"
	"github.com/andesbank/coreledger/internal/events"
	"github.com/andesbank/coreledger/internal/infra"
	"github.com/andesbank/coreledger/internal/logging"
	"github.com/andesbank/coreledger/internal/replica"
	"github.com/andesbank/coreledger/internal/routes"
	"github.com/andesbank/coreledger/internal/server"
)

const consumerGroup = "accountsvc"

func main() {
	cfg, err := config.Load("accountsvc")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.AppName)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL, cfg.AppName)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	deps := routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}

	srv, err := server.New(cfg, func(app *fiber.App) error {
		return routes.SetupAccount(app, deps)
	})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	replicaSvc := replica.NewService(
		replica.NewPostgresStore(db),
		account.NewPostgresRepository(db),
		logger,
	)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = cfg.AppName
	}
	consumer := events.NewConsumer(cache, consumerGroup, hostname, replicaSvc.Apply, logger)

	consumerErrCh := make(chan error, 1)
	go func() {
		consumerErrCh <- consumer.Run(ctx)
	}()

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	consumerDone := false

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case err := <-consumerErrCh:
		consumerDone = true
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer error", "error", err)
			os.Exit(1)
		}
	}

	cancel()
	if !consumerDone {
		if err := <-consumerErrCh; err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("consumer stopped", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
