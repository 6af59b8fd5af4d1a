package httpserver

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"

	"taf-timeline/config"
	"taf-timeline/pkg/logger"
)

// ReadinessProbe reports whether the backing stores are usable.
type ReadinessProbe func() bool

func InitFiberServer(appName string, cfg config.ServerConfig, l *logger.Logger, ready ReadinessProbe) *fiber.App {
	s := fiber.New(fiber.Config{
		AppName:      appName,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
		ErrorHandler: errorHandler(l),
	})

	s.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	s.Use(cors.New())
	s.Use(requestLogger(l))

	hc := healthcheck.Config{
		LivenessEndpoint:  "/manage/health",
		ReadinessEndpoint: "/manage/ready",
	}
	if ready != nil {
		hc.ReadinessProbe = func(*fiber.Ctx) bool { return ready() }
	}
	s.Use(healthcheck.New(hc))

	return s
}

func errorHandler(l *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			l.Error(err, map[string]any{"path": c.Path(), "method": c.Method()})
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}

func requestLogger(l *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		l.Debug("http request", map[string]any{
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   c.Response().StatusCode(),
			"duration": time.Since(start).String(),
		})
		return err
	}
}
