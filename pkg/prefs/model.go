package prefs

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strings"
)

const (
	MaxLinks     = 30
	MaxTimeZones = 5
)

var (
	ErrInvalidName       = errors.New("display name is required")
	ErrInvalidWorkday    = errors.New("invalid workday time")
	ErrInvalidLink       = errors.New("invalid link")
	ErrTooManyLinks      = errors.New("too many links")
	ErrLinkNotFound      = errors.New("link not found")
	ErrInvalidTimeZone   = errors.New("invalid time zone")
	ErrDuplicateTimeZone = errors.New("time zone already exists")
	ErrTooManyTimeZones  = errors.New("too many time zones")
	ErrTimeZoneNotFound  = errors.New("time zone not found")
)

// UserData is the whole persisted state of the start page.
type UserData struct {
	DisplayName   string     `json:"displayName"`
	StartTime     string     `json:"startTime,omitempty"`
	EndTime       string     `json:"endTime,omitempty"`
	Links         []Link     `json:"links"`
	IsAuth        bool       `json:"isAuth"`
	TimeZones     []TimeZone `json:"timeZones"`
	IsBusSchedule bool       `json:"isBusSchedule"`
	LastDate      string     `json:"lastDate,omitempty"`
}

type Link struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// TimeZone is a world clock entry, as an offset in hours from UTC.
type TimeZone struct {
	Title  string  `json:"title"`
	Offset float64 `json:"offset"`
}

func DefaultUserData() UserData {
	return UserData{
		Links:     []Link{},
		TimeZones: []TimeZone{},
	}
}

func (u UserData) Clone() UserData {
	clone := u
	clone.Links = slices.Clone(u.Links)
	clone.TimeZones = slices.Clone(u.TimeZones)

	if clone.Links == nil {
		clone.Links = []Link{}
	}
	if clone.TimeZones == nil {
		clone.TimeZones = []TimeZone{}
	}

	return clone
}

// ValidateLink checks a new link against the ones already saved.
func ValidateLink(existing []Link, link Link) error {
	if len(existing) >= MaxLinks {
		return fmt.Errorf("%w: at most %d links", ErrTooManyLinks, MaxLinks)
	}

	if len([]rune(strings.TrimSpace(link.Title))) <= 3 {
		return fmt.Errorf("%w: title must be more than 3 characters", ErrInvalidLink)
	}

	parsed, err := url.Parse(link.URL)
	if err != nil || parsed.Scheme == "" || (parsed.Host == "" && parsed.Opaque == "") {
		return fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidLink, link.URL)
	}

	return nil
}

// ValidateTimeZone checks a new world clock entry against the ones already saved.
func ValidateTimeZone(existing []TimeZone, zone TimeZone) error {
	if len(existing) >= MaxTimeZones {
		return fmt.Errorf("%w: at most %d time zones", ErrTooManyTimeZones, MaxTimeZones)
	}

	if len([]rune(strings.TrimSpace(zone.Title))) <= 2 {
		return fmt.Errorf("%w: title must be more than 2 characters", ErrInvalidTimeZone)
	}

	if zone.Offset < -14 || zone.Offset > 14 || math.Mod(zone.Offset, 0.5) != 0 {
		return fmt.Errorf("%w: offset must be between -14 and 14 in steps of 0.5", ErrInvalidTimeZone)
	}

	for _, other := range existing {
		if other.Title == zone.Title && other.Offset == zone.Offset {
			return ErrDuplicateTimeZone
		}
	}

	return nil
}
