package models

import "github.com/pkg/errors"

// Terminal failure kinds of a sync run. None of them is retried.
var (
	ErrFetch    = errors.New("taf fetch failed")
	ErrTime     = errors.New("taf issue time missing")
	ErrLocation = errors.New("location unavailable")
	ErrConfig   = errors.New("no station configured")
)

// StatusFor maps a sync error to the status string shown on the watch.
func StatusFor(err error) string {
	switch {
	case err == nil:
		return StatusUpdated
	case errors.Is(err, ErrTime):
		return StatusErrorTime
	case errors.Is(err, ErrLocation):
		return StatusNoLocation
	case errors.Is(err, ErrConfig):
		return StatusGoSettings
	default:
		return StatusErrorFetch
	}
}
