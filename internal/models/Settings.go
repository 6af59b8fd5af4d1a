package models

// Persistence keys shared by the settings store and the config handoff.
const (
	KeyGetNearest = "getNearest"
	KeyStationID  = "stationID"
	KeyLastIDRoot = "lastIDRoot"
	KeyLastIDNum  = "lastIDNum"
)

// Settings selects where the station comes from on each run.
type Settings struct {
	GetNearest bool   `json:"getNearest"`
	StationID  string `json:"stationID" example:"KJFK"`
}

// Configured reports whether either sourcing mode is usable.
func (s Settings) Configured() bool {
	return s.GetNearest || s.StationID != ""
}

// SyncState addresses the previous batch: ids LastIDRoot+0 .. LastIDRoot+LastIDNum.
type SyncState struct {
	LastIDRoot string `json:"lastIDRoot" example:"AVWX-TAF-KJFK-231130Z-"`
	LastIDNum  int    `json:"lastIDNum" example:"4"`
}

// EmptySyncState means there is nothing to delete.
func EmptySyncState() SyncState {
	return SyncState{LastIDNum: -1}
}

type Coordinates struct {
	Lat float64 `json:"lat" example:"40.6413"`
	Lon float64 `json:"lon" example:"-73.7781"`
}
