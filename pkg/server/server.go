// Package server assembles the echo HTTP server: middleware, API routes, health and metrics.
package server

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/keizu/pkg/genealogy"
	"github.com/Ramsey-B/keizu/pkg/middleware"
	"github.com/Ramsey-B/keizu/pkg/routes/clan"
	"github.com/Ramsey-B/keizu/pkg/routes/health"
	"github.com/Ramsey-B/keizu/pkg/routes/samurai"
)

// Options holds the collaborators the routes are served from
type Options struct {
	AppName string
	Samurai *genealogy.SamuraiService
	Clans   *genealogy.ClanService
	Health  *health.Checker
}

// New builds the echo instance
func New(logger ectologger.Logger, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomiddleware.Recover())
	e.Use(otelecho.Middleware(opts.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	if opts.Health != nil {
		opts.Health.RegisterRoutes(e)
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	samurai.NewHandler(opts.Samurai).Register(api.Group("/samurai"))
	clan.NewHandler(opts.Clans).Register(api.Group("/clan"))

	return e
}
