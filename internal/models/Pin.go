package models

import "time"

const (
	PinLayoutType          = "genericPin"
	NotificationLayoutType = "genericNotification"
	PinForegroundColor     = "#FFFFFF"
	NotificationIcon       = "system://images/SCHEDULED_FLIGHT"
)

// Pin is a single timeline entry in the timeline service's wire format.
type Pin struct {
	ID                 string        `json:"id" example:"AVWX-TAF-KJFK-231130Z-0"`
	Time               time.Time     `json:"time" example:"2025-07-23T12:00:00Z"`
	Layout             PinLayout     `json:"layout"`
	CreateNotification *Notification `json:"createNotification,omitempty"`
}

type PinLayout struct {
	Type            string `json:"type"`
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	Body            string `json:"body"`
	ForegroundColor string `json:"foregroundColor"`
	BackgroundColor string `json:"backgroundColor"`
	TinyIcon        string `json:"tinyIcon"`
}

type Notification struct {
	Layout NotificationLayout `json:"layout"`
}

type NotificationLayout struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	TinyIcon string `json:"tinyIcon"`
}
