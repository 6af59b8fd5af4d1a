package models

import "github.com/pkg/errors"

// ErrUnknownFlightRules is returned for a flight-rule category outside VFR/MVFR/IFR/LIFR.
var ErrUnknownFlightRules = errors.New("unknown flight rules")

type FlightRules string

const (
	VFR  FlightRules = "VFR"
	MVFR FlightRules = "MVFR"
	IFR  FlightRules = "IFR"
	LIFR FlightRules = "LIFR"
)

// RulesStyle is the pin colour and icon for a flight-rule category.
type RulesStyle struct {
	Color string
	Icon  string
}

var rulesStyles = map[FlightRules]RulesStyle{
	VFR:  {Color: "#55AA55", Icon: "system://images/TIMELINE_SUN"},
	MVFR: {Color: "#55AAFF", Icon: "system://images/PARTLY_CLOUDY"},
	IFR:  {Color: "#AA5555", Icon: "system://images/CLOUDY_DAY"},
	LIFR: {Color: "#AA55FF", Icon: "system://images/RAINING_AND_SNOWING"},
}

func ParseFlightRules(s string) (FlightRules, error) {
	fr := FlightRules(s)
	if _, ok := rulesStyles[fr]; !ok {
		return "", errors.Wrapf(ErrUnknownFlightRules, "%q", s)
	}
	return fr, nil
}

func (fr FlightRules) Style() RulesStyle {
	return rulesStyles[fr]
}
