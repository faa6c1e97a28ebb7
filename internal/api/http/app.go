package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// AppConfig describes the fiber application to build.
type AppConfig struct {
	Name        string
	Middlewares MiddlewareConfig
	Routes      RouteConfig
}

// NewApp builds the fiber application with middlewares and routes attached.
func NewApp(cfg AppConfig, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger, cfg.Middlewares.Development),
	})
	RegisterMiddlewares(app, logger, metrics, cfg.Middlewares)
	cfg.Routes.Metrics = metrics
	RegisterRoutes(app, cfg.Routes)
	return app
}
