package http

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"taf-timeline/internal/models"
	"taf-timeline/internal/services/updater"
	"taf-timeline/pkg/logger"
)

const swaggerDocPath = "docs/swagger.json"

type Syncer interface {
	Sync(ctx context.Context) (updater.Result, error)
}

type SettingsService interface {
	Load(ctx context.Context) (models.Settings, error)
	LoadSyncState(ctx context.Context) (models.SyncState, error)
	BeginConfiguration(ctx context.Context) (string, error)
	ApplyConfiguration(ctx context.Context, response string) (models.Settings, error)
}

type StatusBoard interface {
	Latest() (models.StatusEntry, bool)
	History() []models.StatusEntry
}

type routes struct {
	syncer   Syncer
	settings SettingsService
	board    StatusBoard
	l        *logger.Logger
}

func NewRouter(
	app *fiber.App,
	syncer Syncer,
	settings SettingsService,
	board StatusBoard,
	l *logger.Logger,
) {
	r := &routes{
		syncer:   syncer,
		settings: settings,
		board:    board,
		l:        l,
	}

	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		swaggerData, err := os.ReadFile(swaggerDocPath)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Failed to read Swagger documentation"})
		}

		c.Set("Content-Type", "application/json")
		return c.Send(swaggerData)
	})

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	app.Post("/sync", r.handleSync)
	app.Get("/status", r.handleStatus)
	app.Get("/settings", r.handleSettings)
	app.Get("/config", r.handleConfig)
	app.Get("/config/return", r.handleConfigReturn)
}
