package dashboard

import (
	"math"
	"time"

	"github.com/rycus86/startpage-departures/pkg/timetables"
)

const (
	DefaultWorkdayStart = "09:30"
	DefaultWorkdayEnd   = "18:30"
)

type Progress struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Percent int    `json:"percent"`
}

// WorkdayProgress reports how much of the workday has elapsed at now, by
// minute. Empty or malformed bounds fall back to the defaults.
func WorkdayProgress(start, end string, now time.Time) Progress {
	start = withDefault(start, DefaultWorkdayStart)
	end = withDefault(end, DefaultWorkdayEnd)

	startMinutes := minutesOfDay(start)
	total := minutesOfDay(end) - startMinutes

	progress := Progress{Start: start, End: end}

	if total > 0 {
		elapsed := now.Hour()*60 + now.Minute() - startMinutes
		progress.Percent = int(math.Floor(float64(elapsed) / float64(total) * 100))
	}

	return progress
}

// Display is the number shown on the page: past the end of the day it counts
// down into negative overtime.
func (p Progress) Display() int {
	if p.Percent > 100 {
		return 100 - p.Percent
	}

	return p.Percent
}

func withDefault(value, fallback string) string {
	if _, _, ok := timetables.ParseClock(value); !ok {
		return fallback
	}

	return value
}

func minutesOfDay(clock string) int {
	hour, minute, _ := timetables.ParseClock(clock)
	return hour*60 + minute
}
