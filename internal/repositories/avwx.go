package repositories

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"taf-timeline/internal/models"
	"taf-timeline/pkg/logger"
)

const (
	AvwxBaseURL = "http://avwx.rest/api/taf.php"
)

// StationQuery selects a report either by ICAO station or by position.
type StationQuery struct {
	Station     string
	Coordinates *models.Coordinates
}

func (q StationQuery) Values() (url.Values, error) {
	values := url.Values{}
	switch {
	case q.Station != "":
		values.Set("station", q.Station)
	case q.Coordinates != nil:
		values.Set("lat", strconv.FormatFloat(q.Coordinates.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(q.Coordinates.Lon, 'f', -1, 64))
	default:
		return nil, errors.New("station query needs a station or coordinates")
	}
	values.Set("format", "JSON")
	return values, nil
}

// AvwxRepository issues one attempt per fetch behind a circuit breaker.
type AvwxRepository struct {
	baseURL    string
	httpClient HTTPClient
	breaker    *gobreaker.CircuitBreaker
	l          *logger.Logger
}

func NewAvwxRepository(baseURL string, l *logger.Logger, httpClient HTTPClient) *AvwxRepository {
	if baseURL == "" {
		baseURL = AvwxBaseURL
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "avwx",
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warning("circuit breaker state changed", map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &AvwxRepository{
		baseURL:    baseURL,
		httpClient: httpClient,
		breaker:    cb,
		l:          l,
	}
}

func (a *AvwxRepository) Name() string {
	return "avwx"
}

func (a *AvwxRepository) FetchTAF(ctx context.Context, q StationQuery) (models.ForecastResponse, error) {
	var forecast models.ForecastResponse

	values, err := q.Values()
	if err != nil {
		return forecast, errors.Wrap(models.ErrFetch, err.Error())
	}
	u := a.baseURL + "?" + values.Encode()

	a.l.Info("making avwx API request", map[string]any{
		"station": q.Station,
		"url":     u,
	})

	result, err := a.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create request")
		}
		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "failed to do request")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read response body")
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, errors.Errorf("HTTP error (status %d): %s", resp.StatusCode, resp.Status)
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return forecast, errors.Wrap(models.ErrFetch, "circuit breaker open")
		}
		return forecast, errors.Wrap(models.ErrFetch, err.Error())
	}

	body, ok := result.([]byte)
	if !ok {
		return forecast, errors.Wrap(models.ErrFetch, "unexpected result type from circuit breaker")
	}

	if err = json.Unmarshal(body, &forecast); err != nil {
		return forecast, errors.Wrapf(models.ErrFetch, "failed to parse JSON response: %v", err)
	}

	a.l.Info("parsed avwx response", map[string]any{
		"station":  forecast.Station,
		"time":     forecast.Time,
		"segments": len(forecast.Forecast),
		"error":    forecast.HasError,
	})

	return forecast, nil
}
