package dashboard

import (
	"time"

	"github.com/rycus86/startpage-departures/pkg/prefs"
	"github.com/rycus86/startpage-departures/pkg/timetables"
)

type Mode string

const (
	ModeOnboarding Mode = "onboarding"
	ModeKnown      Mode = "known"
)

type View struct {
	Mode        Mode   `json:"mode"`
	DisplayName string `json:"displayName"`

	Greeting        Greeting `json:"greeting,omitempty"`
	GreetingMessage string   `json:"greetingMessage,omitempty"`

	Progress        *Progress `json:"progress,omitempty"`
	ProgressDisplay int       `json:"progressDisplay"`

	Clocks []Clock      `json:"clocks,omitempty"`
	Links  []prefs.Link `json:"links,omitempty"`
	Bus    *BusView     `json:"bus,omitempty"`
}

type BusView struct {
	Visible bool              `json:"visible"`
	Board   *timetables.Board `json:"board,omitempty"`
}

// Build assembles the page for the given user. Users that have not finished
// onboarding only get their (possibly empty) display name back.
func Build(data prefs.UserData, snapshot *timetables.Snapshot, now time.Time) View {
	if !data.IsAuth {
		return View{
			Mode:        ModeOnboarding,
			DisplayName: data.DisplayName,
		}
	}

	greeting := GreetingAt(now)
	progress := WorkdayProgress(data.StartTime, data.EndTime, now)

	view := View{
		Mode:            ModeKnown,
		DisplayName:     data.DisplayName,
		Greeting:        greeting,
		GreetingMessage: greeting.Message(),
		Progress:        &progress,
		ProgressDisplay: progress.Display(),
		Clocks:          Clocks(data.TimeZones, now),
		Links:           SortLinks(data.Links),
		Bus:             &BusView{Visible: data.IsBusSchedule},
	}

	if data.IsBusSchedule && snapshot != nil {
		board := snapshot.Board
		view.Bus.Board = &board
	}

	return view
}
