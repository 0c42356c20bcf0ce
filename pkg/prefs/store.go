package prefs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/rycus86/startpage-departures/pkg/timetables"
)

var ErrNotFound = errors.New("no preferences stored")

// Store persists the user data blob. Load returns ErrNotFound when nothing has
// been saved yet.
type Store interface {
	Load(ctx context.Context) (*UserData, error)
	Save(ctx context.Context, data *UserData) error
}

// Manager reads the store once at start and writes to it on every change.
type Manager struct {
	store Store
	clock func() time.Time
	newID func() string

	mu   sync.RWMutex
	data UserData
}

func NewManager(ctx context.Context, store Store, clock func() time.Time) (*Manager, error) {
	if clock == nil {
		clock = time.Now
	}

	m := &Manager{
		store: store,
		clock: clock,
		newID: uuid.NewString,
		data:  DefaultUserData(),
	}

	stored, err := store.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		log.Info().Msg("No stored preferences, starting with an empty profile")
		return m, nil
	} else if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}

	m.data = stored.Clone()

	return m, nil
}

func (m *Manager) Get() UserData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.data.Clone()
}

// Update applies fn to a copy of the current data and saves it. Nothing
// changes when fn or the store fails.
func (m *Manager) Update(ctx context.Context, fn func(*UserData) error) (UserData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	updated := m.data.Clone()
	if err := fn(&updated); err != nil {
		return m.data.Clone(), err
	}

	updated.LastDate = m.clock().Format("2006-01-02")

	if err := m.store.Save(ctx, &updated); err != nil {
		return m.data.Clone(), fmt.Errorf("saving preferences: %w", err)
	}

	m.data = updated

	return updated.Clone(), nil
}

func (m *Manager) Onboard(ctx context.Context, displayName string) (UserData, error) {
	return m.Update(ctx, func(data *UserData) error {
		name := strings.TrimSpace(displayName)
		if name == "" {
			return ErrInvalidName
		}

		data.DisplayName = name
		data.IsAuth = true

		return nil
	})
}

func (m *Manager) SetWorkday(ctx context.Context, start, end string) (UserData, error) {
	return m.Update(ctx, func(data *UserData) error {
		for _, value := range []string{start, end} {
			if _, _, ok := timetables.ParseClock(value); !ok {
				return fmt.Errorf("%w: %q", ErrInvalidWorkday, value)
			}
		}

		data.StartTime = start
		data.EndTime = end

		return nil
	})
}

func (m *Manager) SetBusSchedule(ctx context.Context, visible bool) (UserData, error) {
	return m.Update(ctx, func(data *UserData) error {
		data.IsBusSchedule = visible
		return nil
	})
}

func (m *Manager) AddLink(ctx context.Context, title, url string) (Link, error) {
	link := Link{
		Title: strings.TrimSpace(title),
		URL:   strings.TrimSpace(url),
	}

	_, err := m.Update(ctx, func(data *UserData) error {
		if err := ValidateLink(data.Links, link); err != nil {
			return err
		}

		link.ID = m.newID()
		data.Links = append(data.Links, link)

		return nil
	})

	return link, err
}

func (m *Manager) RemoveLink(ctx context.Context, id string) (UserData, error) {
	return m.Update(ctx, func(data *UserData) error {
		for i, link := range data.Links {
			if link.ID == id {
				data.Links = append(data.Links[:i], data.Links[i+1:]...)
				return nil
			}
		}

		return fmt.Errorf("%w: %s", ErrLinkNotFound, id)
	})
}

func (m *Manager) AddTimeZone(ctx context.Context, zone TimeZone) (UserData, error) {
	zone.Title = strings.TrimSpace(zone.Title)

	return m.Update(ctx, func(data *UserData) error {
		if err := ValidateTimeZone(data.TimeZones, zone); err != nil {
			return err
		}

		data.TimeZones = append(data.TimeZones, zone)

		return nil
	})
}

func (m *Manager) RemoveTimeZone(ctx context.Context, zone TimeZone) (UserData, error) {
	return m.Update(ctx, func(data *UserData) error {
		for i, other := range data.TimeZones {
			if other.Title == zone.Title && other.Offset == zone.Offset {
				data.TimeZones = append(data.TimeZones[:i], data.TimeZones[i+1:]...)
				return nil
			}
		}

		return fmt.Errorf("%w: %s (%+g)", ErrTimeZoneNotFound, zone.Title, zone.Offset)
	})
}
