package timetables

import "time"

const (
	DefaultGracePeriod        = 10 * time.Minute
	DefaultCatchabilityWindow = 10 * time.Minute
	DefaultLeadTime           = 10 * time.Minute
)

// DepartureEntry is one scheduled run taken from a timetable column.
type DepartureEntry struct {
	DepartureTime time.Time  `json:"departureTime"`
	ArrivalTime   *time.Time `json:"arrivalTime,omitempty"`
	SourceIndex   int        `json:"sourceIndex"`
}

// Policy holds the constants used to filter a timetable and to derive the
// board shown to the user.
type Policy struct {
	GracePeriod        time.Duration
	CatchabilityWindow time.Duration
	LeadTime           time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		GracePeriod:        DefaultGracePeriod,
		CatchabilityWindow: DefaultCatchabilityWindow,
		LeadTime:           DefaultLeadTime,
	}
}

type Board struct {
	Now     time.Time        `json:"now"`
	Entries []DepartureEntry `json:"entries"`

	Fading         *DepartureEntry  `json:"fading,omitempty"`
	FadingDeparted bool             `json:"fadingDeparted"`
	Upcoming       []DepartureEntry `json:"upcoming"`

	Focused *DepartureEntry `json:"focused,omitempty"`
	Next    *DepartureEntry `json:"next,omitempty"`

	LeaveBy     *time.Time `json:"leaveBy,omitempty"`
	NextLeaveBy *time.Time `json:"nextLeaveBy,omitempty"`
}

// NoService reports whether there is nothing left to catch.
func (b Board) NoService() bool {
	return len(b.Entries) == 0
}
