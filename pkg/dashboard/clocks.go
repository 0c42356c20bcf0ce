package dashboard

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rycus86/startpage-departures/pkg/prefs"
)

type Clock struct {
	Title      string    `json:"title"`
	Offset     float64   `json:"offset"`
	Time       time.Time `json:"time"`
	Difference string    `json:"difference"`
}

// Clocks returns the current time in each configured zone, relative to the
// location of now.
func Clocks(zones []prefs.TimeZone, now time.Time) []Clock {
	_, localSeconds := now.Zone()
	localOffset := float64(localSeconds) / 3600

	clocks := make([]Clock, 0, len(zones))

	for _, zone := range zones {
		location := time.FixedZone(zone.Title, int(zone.Offset*3600))

		clocks = append(clocks, Clock{
			Title:      zone.Title,
			Offset:     zone.Offset,
			Time:       now.In(location),
			Difference: offsetDifference(zone.Offset - localOffset),
		})
	}

	return clocks
}

func offsetDifference(hours float64) string {
	value := strconv.FormatFloat(hours, 'f', -1, 64)

	switch {
	case hours > 0:
		return fmt.Sprintf("+%s hours", value)
	case hours < 0:
		return fmt.Sprintf("%s hours", value)
	default:
		return "Same time"
	}
}
