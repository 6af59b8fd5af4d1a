package models

import (
	"encoding/json"
	"fmt"
)

// ForecastResponse is the TAF report returned by the weather API.
type ForecastResponse struct {
	Station  string    `json:"Station" example:"KJFK"`
	Time     string    `json:"Time" example:"231130Z"`
	Forecast []Segment `json:"Forecast"`

	// Error holds the raw value of the API's "Error" key. HasError reports
	// whether the key was present at all, whatever its value.
	Error    string `json:"-"`
	HasError bool   `json:"-"`
}

// Segment is one validity period of a TAF.
type Segment struct {
	RawLine     string `json:"Raw-Line" example:"FM241200 27010KT P6SM SCT250"`
	Probability string `json:"Probability" example:""`
	StartTime   string `json:"Start-Time" example:"2412"`
	EndTime     string `json:"End-Time" example:"2418"`
	FlightRules string `json:"Flight-Rules" example:"VFR"`
	Type        string `json:"Type" example:"FROM"`
}

func (r *ForecastResponse) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	type plain ForecastResponse
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	*r = ForecastResponse(p)
	if raw, ok := probe["Error"]; ok {
		r.HasError = true
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil {
			r.Error = msg
		} else {
			r.Error = string(raw)
		}
	}

	return nil
}

// PinIDRoot is the prefix shared by every pin built from this report.
func (r *ForecastResponse) PinIDRoot() string {
	return fmt.Sprintf("AVWX-TAF-%s-%s-", r.Station, r.Time)
}
