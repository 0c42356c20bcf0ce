package timetables

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu   sync.Mutex
	text string
	err  error
}

func (s *stubSource) Fetch(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.text, s.err
}

func (s *stubSource) set(text string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.text, s.err = text, err
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

func TestTracker_Refresh(t *testing.T) {
	source := &stubSource{text: scenarioTimetable}
	clock := &manualClock{now: at(8, 55)}
	tracker := NewTracker(source, DefaultPolicy(), clock.Now, 10*time.Second)

	assert.Nil(t, tracker.Current())

	first := tracker.Refresh(context.Background())
	require.NotNil(t, first.Board.LeaveBy)
	assert.Equal(t, at(9, 20), *first.Board.LeaveBy)
	assert.Nil(t, first.PreviousLeaveBy)
	assert.True(t, first.LeaveByChanged())
	assert.Equal(t, at(8, 55), first.TimetableFetchedAt)
	assert.Same(t, first, tracker.Current())

	clock.Set(at(8, 56))
	second := tracker.Refresh(context.Background())
	assert.Equal(t, at(9, 20), *second.PreviousLeaveBy)
	assert.False(t, second.LeaveByChanged())

	clock.Set(at(9, 21))
	third := tracker.Refresh(context.Background())
	assert.Equal(t, at(9, 50), *third.Board.LeaveBy)
	assert.Equal(t, at(9, 20), *third.PreviousLeaveBy)
	assert.Equal(t, at(9, 50), *third.PreviousNextLeaveBy)
	assert.True(t, third.LeaveByChanged())
}

func TestTracker_KeepsLastTimetableOnError(t *testing.T) {
	source := &stubSource{text: scenarioTimetable}
	clock := &manualClock{now: at(8, 0)}
	tracker := NewTracker(source, DefaultPolicy(), clock.Now, 0)

	tracker.Refresh(context.Background())

	source.set("", errors.New("unreachable"))
	clock.Set(at(8, 30))
	snapshot := tracker.Refresh(context.Background())

	assert.Len(t, snapshot.Board.Entries, 3)
	assert.Equal(t, at(8, 0), snapshot.TimetableFetchedAt)
}

func TestTracker_NoTimetableYet(t *testing.T) {
	source := &stubSource{err: errors.New("unreachable")}
	tracker := NewTracker(source, DefaultPolicy(), func() time.Time { return at(8, 0) }, 0)

	snapshot := tracker.Refresh(context.Background())

	require.NotNil(t, snapshot)
	assert.True(t, snapshot.Board.NoService())
	assert.True(t, snapshot.TimetableFetchedAt.IsZero())
}

func TestTracker_RunStopsOnCancel(t *testing.T) {
	source := &stubSource{text: scenarioTimetable}
	tracker := NewTracker(source, DefaultPolicy(), func() time.Time { return at(8, 55) }, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- tracker.Run(ctx) }()

	require.Eventually(t, func() bool { return tracker.Current() != nil }, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("tracker did not stop")
	}
}
