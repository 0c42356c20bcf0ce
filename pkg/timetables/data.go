package timetables

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var clockPattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// ParseClock parses an H:MM or HH:MM token. Tokens that do not look like a
// 24-hour time of day (placeholders, dashes, 25:00, ...) are rejected.
func ParseClock(token string) (hour, minute int, ok bool) {
	if !clockPattern.MatchString(token) {
		return 0, 0, false
	}

	h, m, _ := strings.Cut(token, ":")

	hour, err := strconv.Atoi(h)
	if err != nil || hour > 23 {
		return 0, 0, false
	}

	minute, err = strconv.Atoi(m)
	if err != nil || minute > 59 {
		return 0, 0, false
	}

	return hour, minute, true
}

// ComputeSchedule turns a two-row timetable into the departures that have not
// been missed yet, ordered by departure time. The first row holds departures,
// the second arrivals at the same column index; the first token of each row is
// a label. Malformed input degrades to omission and never to an error.
func ComputeSchedule(timetableText string, grace time.Duration, now time.Time) []DepartureEntry {
	entries := []DepartureEntry{}

	lines := strings.Split(strings.TrimSpace(timetableText), "\n")
	if len(lines) < 2 {
		return entries
	}

	departures := dataTokens(lines[0])
	arrivals := dataTokens(lines[1])

	cutoff := now.Add(-grace)

	for i, token := range departures {
		hour, minute, ok := ParseClock(token)
		if !ok {
			continue
		}

		departure := onDay(now, hour, minute)
		if departure.Before(cutoff) {
			continue // missed completely
		}

		entry := DepartureEntry{
			DepartureTime: departure,
			SourceIndex:   i,
		}

		if i < len(arrivals) {
			if ah, am, ok := ParseClock(arrivals[i]); ok {
				arrival := onDay(now, ah, am)
				entry.ArrivalTime = &arrival
			}
		}

		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DepartureTime.Before(entries[j].DepartureTime)
	})

	return entries
}

// DeriveBoard splits a sorted schedule into the entry that is about to leave
// and the ones that can still be caught, and works out when to leave.
func DeriveBoard(entries []DepartureEntry, now time.Time, window, lead time.Duration) Board {
	board := Board{
		Now:      now,
		Entries:  entries,
		Upcoming: []DepartureEntry{},
	}

	for i := range entries {
		entry := entries[i]

		if entry.DepartureTime.Sub(now) <= window {
			board.Fading = &entry
			board.FadingDeparted = entry.DepartureTime.Before(now)
		} else {
			board.Upcoming = append(board.Upcoming, entry)
		}
	}

	if len(board.Upcoming) > 0 {
		board.Focused = &board.Upcoming[0]
		board.LeaveBy = leaveBy(board.Focused, lead)
	}

	if len(board.Upcoming) > 1 {
		board.Next = &board.Upcoming[1]
		board.NextLeaveBy = leaveBy(board.Next, lead)
	}

	return board
}

func (p Policy) Evaluate(timetableText string, now time.Time) Board {
	entries := ComputeSchedule(timetableText, p.GracePeriod, now)
	return DeriveBoard(entries, now, p.CatchabilityWindow, p.LeadTime)
}

func dataTokens(line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fields
	}

	return fields[1:]
}

func onDay(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func leaveBy(entry *DepartureEntry, lead time.Duration) *time.Time {
	t := entry.DepartureTime.Add(-lead)
	return &t
}
