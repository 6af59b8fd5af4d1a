package repositories

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"taf-timeline/config"
	"taf-timeline/internal/models"
	"taf-timeline/pkg/logger"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TafRepository fetches the terminal aerodrome forecast for a station or position.
type TafRepository interface {
	Name() string
	FetchTAF(ctx context.Context, q StationQuery) (models.ForecastResponse, error)
}

// TimelineRepository inserts and removes pins on the user's timeline.
type TimelineRepository interface {
	PutPin(ctx context.Context, pin models.Pin) error
	DeletePin(ctx context.Context, id string) error
}

// SettingsStore is a flat string key-value store.
type SettingsStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Locator resolves the current position of the device.
type Locator interface {
	Locate(ctx context.Context) (models.Coordinates, error)
}

type Repositories struct {
	Taf      TafRepository
	Timeline TimelineRepository
	Settings SettingsStore
	Locator  Locator
}

func InitRepositories(ctx context.Context, cfg *config.Config, l *logger.Logger) (*Repositories, error) {
	store, err := openStore(ctx, cfg.Store, l)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Taf: NewAvwxRepository(cfg.Avwx.URL, l, &http.Client{Timeout: cfg.Avwx.Timeout}),
		Timeline: NewTimelineClient(
			cfg.Timeline.URL,
			StaticToken(cfg.Timeline.Token),
			cfg.Timeline.RPS,
			l,
			http.DefaultClient,
		),
		Settings: store,
		Locator:  newLocator(cfg, l),
	}, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, l *logger.Logger) (SettingsStore, error) {
	switch cfg.Driver {
	case "", "memory":
		l.Warning("using in-memory settings store, settings are lost on restart")
		return NewMemorySettingsStore(), nil
	case DriverSQLite, DriverMySQL:
		return OpenSQLSettingsStore(ctx, cfg.Driver, cfg.DSN, l)
	}
	return nil, errors.Errorf("unknown store driver %q", cfg.Driver)
}

func newLocator(cfg *config.Config, l *logger.Logger) Locator {
	var inner Locator
	switch {
	case cfg.Location.Lat != nil && cfg.Location.Lon != nil:
		inner = NewStaticLocator(models.Coordinates{Lat: *cfg.Location.Lat, Lon: *cfg.Location.Lon})
	case cfg.Location.Address != "":
		inner = NewGeocoderLocator(cfg.Geocoder.APIKey, cfg.Location.Address)
	default:
		l.Warning("no location source configured, nearest-station mode will report no location")
		inner = unavailableLocator{}
	}
	return NewCachedLocator(inner, MaxLocationAge)
}
