package timetables

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const DefaultRefreshInterval = 15 * time.Second

var (
	evaluationCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "departures_evaluation_count",
		Help: "Number of times the departure board was recomputed",
	})
	fetchErrorCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "departures_fetch_error_count",
		Help: "Number of times the timetable source returned an error",
	})
	upcomingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "departures_upcoming",
		Help: "Number of catchable departures on the current board",
	})
)

func init() {
	prometheus.MustRegister(evaluationCount, fetchErrorCount, upcomingGauge)
}

// Snapshot is the board of one tick, plus the leave-by times computed on the
// tick before it.
type Snapshot struct {
	Board Board `json:"board"`

	PreviousLeaveBy     *time.Time `json:"previousLeaveBy,omitempty"`
	PreviousNextLeaveBy *time.Time `json:"previousNextLeaveBy,omitempty"`

	TimetableFetchedAt time.Time `json:"timetableFetchedAt"`
}

// LeaveByChanged reports whether the recommended leave time moved since the
// previous tick.
func (s *Snapshot) LeaveByChanged() bool {
	return !sameTime(s.Board.LeaveBy, s.PreviousLeaveBy)
}

type Tracker struct {
	source   Source
	policy   Policy
	clock    func() time.Time
	interval time.Duration

	mu        sync.Mutex
	text      string
	fetchedAt time.Time

	current atomic.Pointer[Snapshot]
}

func NewTracker(source Source, policy Policy, clock func() time.Time, interval time.Duration) *Tracker {
	if clock == nil {
		clock = time.Now
	}

	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	return &Tracker{
		source:   source,
		policy:   policy,
		clock:    clock,
		interval: interval,
	}
}

func (t *Tracker) Policy() Policy {
	return t.policy
}

// Current returns the latest snapshot, or nil before the first evaluation.
func (t *Tracker) Current() *Snapshot {
	return t.current.Load()
}

// Run evaluates once straight away and then on every tick until ctx is done.
func (t *Tracker) Run(ctx context.Context) error {
	if t.interval < 5*time.Second || t.interval > 15*time.Second {
		log.Warn().Dur("interval", t.interval).Msg("Refresh interval is outside the usual 5-15s range")
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Refresh(ctx)
		}
	}
}

// Refresh fetches the timetable and recomputes the board. A failed fetch keeps
// the last timetable that was read successfully.
func (t *Tracker) Refresh(ctx context.Context) *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	if text, err := t.source.Fetch(ctx); err != nil {
		fetchErrorCount.Inc()
		log.Error().Err(err).Msg("Failed to fetch timetable, keeping the previous one")
	} else {
		t.text = text
		t.fetchedAt = t.clock()
	}

	board := t.policy.Evaluate(t.text, t.clock())

	snapshot := &Snapshot{
		Board:              board,
		TimetableFetchedAt: t.fetchedAt,
	}

	if previous := t.current.Load(); previous != nil {
		snapshot.PreviousLeaveBy = previous.Board.LeaveBy
		snapshot.PreviousNextLeaveBy = previous.Board.NextLeaveBy
	}

	t.current.Store(snapshot)

	evaluationCount.Inc()
	upcomingGauge.Set(float64(len(board.Upcoming)))

	if snapshot.LeaveByChanged() {
		event := log.Info().Int("upcoming", len(board.Upcoming))
		if board.LeaveBy != nil {
			event = event.Time("leaveBy", *board.LeaveBy)
		}
		event.Msg("Leave-by time updated")
	} else {
		log.Debug().Int("upcoming", len(board.Upcoming)).Msg("Departure board refreshed")
	}

	return snapshot
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.Equal(*b)
}
