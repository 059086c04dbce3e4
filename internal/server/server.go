package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/golang-migrate/migrate/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/askdb/config"
	"github.com/mohammad-safakhou/askdb/internal/store"
	"github.com/mohammad-safakhou/askdb/provider"
	"github.com/mohammad-safakhou/askdb/session"
	"github.com/mohammad-safakhou/askdb/session/inmemory"
	redis_session "github.com/mohammad-safakhou/askdb/session/redis"
)

// Run wires store, provider, sessions and handlers, then serves until the
// listener fails. Connection failures here are fatal; per-query failures are
// handled per request.
func Run(cfg *config.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", sessionHeader},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	registerDocs(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	st, err := store.Open(ctx, store.Options{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.Postgres.DSN(),
		Path:   cfg.Storage.SQLite.Path,
	})
	if err != nil {
		return err
	}

	if cfg.Storage.Driver == store.DriverPostgres {
		if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Printf("migrate: %v", err)
		}
	}

	prov, err := provider.New(cfg.Provider)
	if err != nil {
		return err
	}

	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		sessions, err = redis_session.NewStore(ctx, cfg.Storage.Redis.Addr(), cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
		if err != nil {
			return err
		}
	default:
		sessions = inmemory.NewStore()
	}

	cache := newTranslators(st, prov, cfg.Translator)

	api := e.Group("/api")
	qh := &QueryHandler{
		Sessions:    sessions,
		Translators: cache,
		Collection:  cfg.Storage.Collection,
		SessionTTL:  cfg.Session.TTL,
		ExportsDir:  cfg.Exports.Dir,
	}
	qh.Register(api)

	ch := &CollectionsHandler{Store: st, Translators: cache}
	ch.Register(api.Group("/collections"))

	if addr == "" {
		addr = cfg.Server.Address
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
