package updater

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"taf-timeline/internal/models"
	"taf-timeline/internal/repositories"
	"taf-timeline/internal/services/status"
	"taf-timeline/pkg/logger"
)

// LocateTimeout bounds a single position lookup.
const LocateTimeout = 15 * time.Second

var ErrSyncInProgress = errors.New("sync already in progress")

type SettingsLoader interface {
	Load(ctx context.Context) (models.Settings, error)
}

// Reconciler is the entry point fed with each fetched report.
type Reconciler interface {
	Handle(ctx context.Context, runID string, resp models.ForecastResponse) (string, error)
	Fail(ctx context.Context, runID string, err error) (string, error)
}

type Result struct {
	RunID   string `json:"runID" example:"5f1c2c1e-8d4b-4f53-9f3a-1c7b3f5b2a10"`
	Station string `json:"station,omitempty" example:"KJFK"`
	Status  string `json:"status" example:"TAF Updated"`
}

// Updater resolves the station, fetches its report and hands it over.
// At most one sync runs at a time.
type Updater struct {
	taf        repositories.TafRepository
	locator    repositories.Locator
	settings   SettingsLoader
	reconciler Reconciler
	status     status.Sender
	newRunID   func() string

	running sync.Mutex
	l       *logger.Logger
}

func NewUpdater(
	taf repositories.TafRepository,
	locator repositories.Locator,
	settings SettingsLoader,
	reconciler Reconciler,
	sender status.Sender,
	l *logger.Logger,
) *Updater {
	return &Updater{
		taf:        taf,
		locator:    locator,
		settings:   settings,
		reconciler: reconciler,
		status:     sender,
		newRunID:   uuid.NewString,
		l:          l,
	}
}

// Sync runs one full update. It returns ErrSyncInProgress without side
// effects when another run holds the lock.
func (u *Updater) Sync(ctx context.Context) (Result, error) {
	if !u.running.TryLock() {
		return Result{}, ErrSyncInProgress
	}
	defer u.running.Unlock()

	res := Result{RunID: u.newRunID()}
	l := u.l.With(map[string]any{"run_id": res.RunID})
	l.Info("sync started")

	query, err := u.resolve(ctx, l)
	if err != nil {
		res.Status, err = u.reconciler.Fail(ctx, res.RunID, err)
		return res, err
	}
	res.Station = query.Station

	if err = status.Report(ctx, u.status, res.RunID, models.StatusUpdating); err != nil {
		l.Warning("status send failed", map[string]any{"err": err.Error()})
	}

	resp, err := u.taf.FetchTAF(ctx, query)
	if err != nil {
		res.Status, err = u.reconciler.Fail(ctx, res.RunID, err)
		return res, err
	}
	if resp.Station != "" {
		res.Station = resp.Station
	}

	res.Status, err = u.reconciler.Handle(ctx, res.RunID, resp)
	return res, err
}

func (u *Updater) resolve(ctx context.Context, l *logger.Logger) (repositories.StationQuery, error) {
	st, err := u.settings.Load(ctx)
	if err != nil {
		return repositories.StationQuery{}, err
	}

	switch {
	case st.GetNearest:
		lctx, cancel := context.WithTimeout(ctx, LocateTimeout)
		defer cancel()

		coords, err := u.locator.Locate(lctx)
		if err != nil {
			if !errors.Is(err, models.ErrLocation) {
				err = errors.Wrap(models.ErrLocation, err.Error())
			}
			return repositories.StationQuery{}, err
		}
		l.Info("position resolved", map[string]any{"lat": coords.Lat, "lon": coords.Lon})
		return repositories.StationQuery{Coordinates: &coords}, nil

	case st.StationID != "":
		return repositories.StationQuery{Station: st.StationID}, nil
	}

	return repositories.StationQuery{}, errors.Wrap(models.ErrConfig, "neither nearest station nor station id set")
}
