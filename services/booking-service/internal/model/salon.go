package model

import (
	"fmt"
	"strings"
	"time"
)

type Salon struct {
	ID       string
	Name     string
	Timezone string
	// WorkingHours holds per-weekday schedule strings such as "09:00-17:00",
	// "09:00-12:00,14:00-18:00" or "closed". A nil map means no schedule.
	WorkingHours map[time.Weekday]string
}

// Location resolves the salon timezone, falling back to UTC.
func (s Salon) Location() *time.Location {
	if tz := strings.TrimSpace(s.Timezone); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.UTC
}

type Service struct {
	ID          string
	SalonID     string
	Name        string
	DurationMin int
	PriceCents  int64
	Active      bool
}

type Staff struct {
	ID            string
	SalonID       string
	Name          string
	Active        bool
	SpokenLocales []string
	CreatedAt     time.Time
}

// Speaks reports whether locale matches one of the staff member's locales by
// primary language subtag ("pt-BR" matches "pt").
func (s Staff) Speaks(locale string) bool {
	want := primaryLanguage(locale)
	if want == "" {
		return true
	}
	for _, l := range s.SpokenLocales {
		if primaryLanguage(l) == want {
			return true
		}
	}
	return false
}

type Client struct {
	ID              string
	SalonID         string
	Phone           string
	Name            string
	Email           string
	PreferredLocale string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func primaryLanguage(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i >= 0 {
		locale = locale[:i]
	}
	return locale
}

// ParseDate reads a YYYY-MM-DD date as local midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return d, nil
}

// ParseClock reads HH:MM and returns minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// At returns the wall-clock instant minute minutes after midnight of day, in day's location.
func At(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, day.Location())
}

// MinuteOfDay is the inverse of At for instants on the same calendar day.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// StartOfDay truncates t to local midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
