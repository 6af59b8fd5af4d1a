package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"taf-timeline/internal/models"
	"taf-timeline/internal/services/settings"
	"taf-timeline/internal/services/updater"
)

// SyncResponse is the outcome of a completed sync run.
type SyncResponse struct {
	RunID   string `json:"runID" example:"5f1c2c1e-8d4b-4f53-9f3a-1c7b3f5b2a10"`
	Station string `json:"station,omitempty" example:"KJFK"`
	Status  string `json:"status" example:"TAF Updated"`
	Error   string `json:"error,omitempty" example:"taf fetch failed"`
}

type StatusResponse struct {
	Latest  *models.StatusEntry  `json:"latest,omitempty"`
	History []models.StatusEntry `json:"history"`
}

type SettingsResponse struct {
	Settings  models.Settings  `json:"settings"`
	SyncState models.SyncState `json:"syncState"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"sync already in progress"`
}

// TriggerSync godoc
// @Summary Run one sync
// @Description Fetches the configured station's TAF, replaces the previous pins and reports the terminal status
// @Tags Sync
// @Produce json
// @Success 202 {object} SyncResponse "Run finished, see status"
// @Failure 409 {object} ErrorResponse "Another sync is running"
// @Router /sync [post]
func (r *routes) handleSync(c *fiber.Ctx) error {
	res, err := r.syncer.Sync(c.UserContext())
	if errors.Is(err, updater.ErrSyncInProgress) {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	}

	out := SyncResponse{
		RunID:   res.RunID,
		Station: res.Station,
		Status:  res.Status,
	}
	if err != nil {
		out.Error = err.Error()
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}

// GetStatus godoc
// @Summary Latest status
// @Description Returns the newest status sent to the watch and the recent history, oldest first
// @Tags Status
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /status [get]
func (r *routes) handleStatus(c *fiber.Ctx) error {
	out := StatusResponse{History: r.board.History()}
	if latest, ok := r.board.Latest(); ok {
		out.Latest = &latest
	}
	return c.JSON(out)
}

// GetSettings godoc
// @Summary Current settings
// @Tags Settings
// @Produce json
// @Success 200 {object} SettingsResponse
// @Failure 500 {object} ErrorResponse
// @Router /settings [get]
func (r *routes) handleSettings(c *fiber.Ctx) error {
	st, err := r.settings.Load(c.UserContext())
	if err != nil {
		r.l.Error(err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Failed to load settings"})
	}
	state, err := r.settings.LoadSyncState(c.UserContext())
	if err != nil {
		r.l.Error(err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Failed to load sync state"})
	}
	return c.JSON(SettingsResponse{Settings: st, SyncState: state})
}

// OpenConfiguration godoc
// @Summary Open the setup page
// @Description Clears the station settings and redirects to the external setup page
// @Tags Settings
// @Success 302
// @Failure 500 {object} ErrorResponse
// @Router /config [get]
func (r *routes) handleConfig(c *fiber.Ctx) error {
	target, err := r.settings.BeginConfiguration(c.UserContext())
	if err != nil {
		r.l.Error(err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Failed to reset settings"})
	}
	return c.Redirect(target, fiber.StatusFound)
}

// ReturnConfiguration godoc
// @Summary Apply the setup page response
// @Description Persists {stationID, getNearest}. An empty response changes nothing.
// @Tags Settings
// @Produce json
// @Param response query string false "URL-encoded JSON payload" example({"stationID":"KJFK","getNearest":false})
// @Success 200 {object} models.Settings
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /config/return [get]
func (r *routes) handleConfigReturn(c *fiber.Ctx) error {
	st, err := r.settings.ApplyConfiguration(c.UserContext(), c.Query("response"))
	if errors.Is(err, settings.ErrInvalidPayload) {
		r.l.Warning("rejected configuration payload", map[string]any{"err": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	if err != nil {
		r.l.Error(err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Failed to save settings"})
	}
	return c.JSON(st)
}
