package timeline

import (
	"strconv"
	"time"

	"github.com/pkg/errors"

	"taf-timeline/internal/models"
)

// maxDayWalk bounds the one-day-at-a-time search for a day of month. Any
// day 1..31 is reached within two months from any start date.
const maxDayWalk = 62

// Deriver resolves DDHH strings against the issue time of a report.
type Deriver struct {
	now    func() time.Time
	anchor time.Time
	set    bool
}

func NewDeriver(now func() time.Time) *Deriver {
	if now == nil {
		now = time.Now
	}
	return &Deriver{now: now}
}

// SetIssueAnchor fixes the anchor from a DDHH... issue string. Starting from
// today (UTC) it walks back one day at a time until the day of month matches,
// so an issue day later than today lands in the previous month.
func (d *Deriver) SetIssueAnchor(issue string) error {
	day, hour, err := parseDayHour(issue)
	if err != nil {
		return errors.Wrapf(models.ErrTime, "issue time %q: %v", issue, err)
	}

	date := midnight(d.now().UTC())
	for i := 0; date.Day() != day; i++ {
		if i >= maxDayWalk {
			return errors.Wrapf(models.ErrTime, "issue day %d never reached", day)
		}
		date = date.AddDate(0, 0, -1)
	}

	d.anchor = time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.UTC)
	d.set = true
	return nil
}

func (d *Deriver) Anchor() time.Time {
	return d.anchor
}

// DeriveTime resolves a DDHH forecast time. It only ever walks forward from
// the anchor, one day at a time, since a TAF never describes the past.
func (d *Deriver) DeriveTime(ddhh string) (time.Time, error) {
	if !d.set {
		return time.Time{}, errors.New("issue anchor not set")
	}

	day, hour, err := parseDayHour(ddhh)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "forecast time %q", ddhh)
	}

	date := midnight(d.anchor)
	for i := 0; date.Day() != day; i++ {
		if i >= maxDayWalk {
			return time.Time{}, errors.Errorf("forecast day %d never reached", day)
		}
		date = date.AddDate(0, 0, 1)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.UTC), nil
}

func parseDayHour(s string) (day, hour int, err error) {
	if len(s) < 4 {
		return 0, 0, errors.Errorf("too short: %q", s)
	}
	day, err = strconv.Atoi(s[0:2])
	if err != nil {
		return 0, 0, errors.Wrap(err, "day")
	}
	hour, err = strconv.Atoi(s[2:4])
	if err != nil {
		return 0, 0, errors.Wrap(err, "hour")
	}
	// Hour 24 is legal in TAF validity periods and rolls to the next day.
	if day < 1 || day > 31 || hour < 0 || hour > 24 {
		return 0, 0, errors.Errorf("out of range: day %d hour %d", day, hour)
	}
	return day, hour, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
