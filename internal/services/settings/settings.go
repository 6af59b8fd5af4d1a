package settings

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"taf-timeline/internal/models"
	"taf-timeline/internal/repositories"
	"taf-timeline/pkg/logger"
)

var ErrInvalidPayload = errors.New("invalid configuration payload")

// Service reads and writes the persisted settings and sync bookkeeping.
type Service struct {
	store    repositories.SettingsStore
	setupURL string
	validate *validator.Validate
	l        *logger.Logger
}

func NewService(store repositories.SettingsStore, setupURL string, l *logger.Logger) *Service {
	return &Service{
		store:    store,
		setupURL: setupURL,
		validate: validator.New(),
		l:        l,
	}
}

// Load returns the station sourcing settings. Malformed values load as unset.
func (s *Service) Load(ctx context.Context) (models.Settings, error) {
	var out models.Settings

	nearest, _, err := s.store.Get(ctx, models.KeyGetNearest)
	if err != nil {
		return out, errors.Wrap(models.ErrConfig, err.Error())
	}
	station, _, err := s.store.Get(ctx, models.KeyStationID)
	if err != nil {
		return out, errors.Wrap(models.ErrConfig, err.Error())
	}

	out.GetNearest = nearest == "true"
	if len(station) == 4 {
		out.StationID = station
	}
	return out, nil
}

func (s *Service) LoadSyncState(ctx context.Context) (models.SyncState, error) {
	st := models.EmptySyncState()

	root, _, err := s.store.Get(ctx, models.KeyLastIDRoot)
	if err != nil {
		return st, err
	}
	num, ok, err := s.store.Get(ctx, models.KeyLastIDNum)
	if err != nil {
		return st, err
	}

	st.LastIDRoot = root
	if ok {
		if n, convErr := strconv.Atoi(num); convErr == nil {
			st.LastIDNum = n
		}
	}
	return st, nil
}

func (s *Service) SaveSyncState(ctx context.Context, st models.SyncState) error {
	if err := s.store.Set(ctx, models.KeyLastIDRoot, st.LastIDRoot); err != nil {
		return err
	}
	return s.store.Set(ctx, models.KeyLastIDNum, strconv.Itoa(st.LastIDNum))
}

// BeginConfiguration clears the station sourcing so no sync runs on stale
// settings while the user edits them, and returns the setup page URL.
func (s *Service) BeginConfiguration(ctx context.Context) (string, error) {
	if err := s.store.Set(ctx, models.KeyStationID, ""); err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, models.KeyGetNearest, "false"); err != nil {
		return "", err
	}
	s.l.Info("configuration started", map[string]any{"setup_url": s.setupURL})
	return s.setupURL, nil
}

type payload struct {
	StationID  string   `json:"stationID" validate:"omitempty,len=4,alphanum"`
	GetNearest flexBool `json:"getNearest"`
}

// flexBool accepts a JSON bool or the strings "true" and "false".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true":
		*b = true
	case "false", "", "null":
		*b = false
	default:
		return errors.Errorf("not a boolean: %s", data)
	}
	return nil
}

// ApplyConfiguration persists the setup page's response. An empty response
// changes nothing.
func (s *Service) ApplyConfiguration(ctx context.Context, response string) (models.Settings, error) {
	if response == "" {
		s.l.Info("configuration returned without changes")
		return s.Load(ctx)
	}

	raw, err := url.PathUnescape(response)
	if err != nil {
		return models.Settings{}, errors.Wrap(ErrInvalidPayload, err.Error())
	}

	var p payload
	if err = json.Unmarshal([]byte(raw), &p); err != nil {
		return models.Settings{}, errors.Wrap(ErrInvalidPayload, err.Error())
	}
	p.StationID = strings.ToUpper(strings.TrimSpace(p.StationID))
	if err = s.validate.Struct(p); err != nil {
		return models.Settings{}, errors.Wrap(ErrInvalidPayload, err.Error())
	}

	if p.StationID != "" {
		if err = s.store.Set(ctx, models.KeyStationID, p.StationID); err != nil {
			return models.Settings{}, err
		}
	}
	if err = s.store.Set(ctx, models.KeyGetNearest, strconv.FormatBool(bool(p.GetNearest))); err != nil {
		return models.Settings{}, err
	}

	s.l.Info("configuration applied", map[string]any{
		"station_id":  p.StationID,
		"get_nearest": bool(p.GetNearest),
	})
	return s.Load(ctx)
}
