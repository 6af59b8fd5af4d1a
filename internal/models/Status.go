package models

import "time"

const StatusKey = "STATUS"

// Status strings shown on the watch.
const (
	StatusUpdating   = "Updating TAF"
	StatusUpdated    = "TAF Updated"
	StatusErrorFetch = "Error Fetch"
	StatusErrorTime  = "Error Time"
	StatusNoLocation = "No Location"
	StatusGoSettings = "Go to Settings"
)

type StatusEntry struct {
	Status string    `json:"status" example:"TAF Updated"`
	At     time.Time `json:"at"`
	RunID  string    `json:"runID,omitempty"`
}
