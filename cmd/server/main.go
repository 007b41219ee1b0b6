package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/config"
	"catalog-admin/internal/engine"
	"catalog-admin/internal/files"
	"catalog-admin/internal/logger"
	"catalog-admin/internal/metadata"
	"catalog-admin/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info().Str("driver", st.Dialect.Name()).Msg("database connected")

	reg := metadata.Catalog()
	if err := st.Bootstrap(ctx, reg); err != nil {
		return err
	}

	uploads, err := files.New(cfg.Storage, log)
	if err != nil {
		return err
	}
	rules, err := engine.NewRules(reg)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: engine.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestLogger(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authSvc := auth.NewService(cfg.Auth)
	api := app.Group("/api")

	// Fixed routes first; the generic :entity routes match last.
	auth.NewHandler(st, authSvc, log).RegisterRoutes(api)
	files.NewHandler(uploads).RegisterRoutes(api)

	repos := engine.BuildRepositories(st, reg, rules, uploads, log)
	engine.RegisterRoutes(api, repos, authSvc.RequireAuth(), log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server listening")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

func requestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("request")
		return err
	}
}
