package timeline

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"taf-timeline/internal/models"
)

var (
	stationRe   = regexp.MustCompile(`^[A-Z][A-Z0-9]{3}$`)
	issueTimeRe = regexp.MustCompile(`^\d{6}Z$`)
)

// dropToken removes everything up to and including the first space. A string
// without spaces is returned unchanged.
func dropToken(s string) string {
	return s[strings.Index(s, " ")+1:]
}

// dropTimeGroup removes the leading time group. A report header
// ("KJFK 231130Z") counts as a single time group.
func dropTimeGroup(s string) string {
	fields := strings.SplitN(s, " ", 3)
	if len(fields) >= 2 && stationRe.MatchString(fields[0]) && issueTimeRe.MatchString(fields[1]) {
		return dropToken(dropToken(s))
	}
	return dropToken(s)
}

// FormatBody rebuilds a segment's raw line behind its validity window,
// without repeating probability or change-type tokens.
func FormatBody(seg models.Segment) string {
	ret := seg.RawLine
	if seg.Probability != "" {
		ret = dropToken(ret)
	}
	ret = dropTimeGroup(ret)
	ret = seg.StartTime + "/" + seg.EndTime + " " + ret

	switch seg.Type {
	case "TEMPO", "BECMG", "INTER":
		ret = dropToken(ret)
		if seg.Type == "TEMPO" {
			ret = "TEMPO " + ret
		}
	}

	return ret
}

// BuildPin turns one segment into a timeline pin. Unknown flight rules are an error.
func BuildPin(seg models.Segment, pinID, station string, d *Deriver) (models.Pin, error) {
	rules, err := models.ParseFlightRules(seg.FlightRules)
	if err != nil {
		return models.Pin{}, errors.Wrapf(err, "pin %s", pinID)
	}

	start, err := d.DeriveTime(seg.StartTime)
	if err != nil {
		return models.Pin{}, errors.Wrapf(err, "pin %s", pinID)
	}

	style := rules.Style()
	return models.Pin{
		ID:   pinID,
		Time: start,
		Layout: models.PinLayout{
			Type:            models.PinLayoutType,
			Title:           "TAF-" + station,
			Subtitle:        "Forecast: " + string(rules),
			Body:            FormatBody(seg),
			ForegroundColor: models.PinForegroundColor,
			BackgroundColor: style.Color,
			TinyIcon:        style.Icon,
		},
	}, nil
}

// AttachNotification sets the "TAF Updated" notification on pin and returns it.
func AttachNotification(pin *models.Pin, station, issued string) *models.Pin {
	pin.CreateNotification = &models.Notification{
		Layout: models.NotificationLayout{
			Type:     models.NotificationLayoutType,
			Title:    "TAF Updated",
			Body:     "Issued for " + station + " @ " + issued,
			TinyIcon: models.NotificationIcon,
		},
	}
	return pin
}
