package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/pkg/errors"

	"taf-timeline/internal/models"
)

// MaxLocationAge is the oldest cached position a sync may use.
const MaxLocationAge = 60 * time.Second

type StaticLocator struct {
	coords models.Coordinates
}

func NewStaticLocator(c models.Coordinates) *StaticLocator {
	return &StaticLocator{coords: c}
}

func (s *StaticLocator) Locate(context.Context) (models.Coordinates, error) {
	return s.coords, nil
}

// GeocoderLocator resolves a configured street address.
type GeocoderLocator struct {
	address geocoder.Address
	geocode func(geocoder.Address) (geocoder.Location, error)
}

func NewGeocoderLocator(apiKey, address string) *GeocoderLocator {
	geocoder.ApiKey = apiKey
	return &GeocoderLocator{
		address: geocoder.Address{Street: address},
		geocode: geocoder.Geocoding,
	}
}

func (g *GeocoderLocator) Locate(ctx context.Context) (models.Coordinates, error) {
	type result struct {
		loc geocoder.Location
		err error
	}
	ch := make(chan result, 1)
	go func() {
		loc, err := g.geocode(g.address)
		ch <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return models.Coordinates{}, errors.Wrap(models.ErrLocation, ctx.Err().Error())
	case r := <-ch:
		if r.err != nil {
			return models.Coordinates{}, errors.Wrap(models.ErrLocation, r.err.Error())
		}
		return models.Coordinates{Lat: r.loc.Latitude, Lon: r.loc.Longitude}, nil
	}
}

type unavailableLocator struct{}

func (unavailableLocator) Locate(context.Context) (models.Coordinates, error) {
	return models.Coordinates{}, errors.Wrap(models.ErrLocation, "no location source configured")
}

// CachedLocator reuses a position younger than maxAge.
type CachedLocator struct {
	inner  Locator
	maxAge time.Duration
	now    func() time.Time

	mu     sync.Mutex
	last   models.Coordinates
	at     time.Time
	cached bool
}

func NewCachedLocator(inner Locator, maxAge time.Duration) *CachedLocator {
	return &CachedLocator{inner: inner, maxAge: maxAge, now: time.Now}
}

func (c *CachedLocator) Locate(ctx context.Context) (models.Coordinates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached && c.now().Sub(c.at) <= c.maxAge {
		return c.last, nil
	}

	coords, err := c.inner.Locate(ctx)
	if err != nil {
		return models.Coordinates{}, err
	}
	c.last, c.at, c.cached = coords, c.now(), true
	return coords, nil
}
