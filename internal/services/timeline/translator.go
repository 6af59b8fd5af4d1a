package timeline

import (
	"strconv"

	"taf-timeline/internal/models"
)

// Translate builds the pins for a report, one per segment that has a start
// time. Pin ids keep the segment's position in the report, so skipped
// segments leave gaps. lastIndex is the position of the last segment,
// skipped or not, and becomes the next run's delete bound.
func Translate(resp models.ForecastResponse, d *Deriver) (pins []models.Pin, lastIndex int, err error) {
	if err := d.SetIssueAnchor(resp.Time); err != nil {
		return nil, -1, err
	}

	root := resp.PinIDRoot()
	pins = make([]models.Pin, 0, len(resp.Forecast))
	for i, seg := range resp.Forecast {
		if seg.StartTime == "" {
			continue
		}
		pin, err := BuildPin(seg, root+strconv.Itoa(i), resp.Station, d)
		if err != nil {
			return nil, -1, err
		}
		pins = append(pins, pin)
	}

	if len(pins) > 0 {
		AttachNotification(&pins[0], resp.Station, resp.Time)
	}

	return pins, len(resp.Forecast) - 1, nil
}
