package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/conflicts"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/workinghours"
)

const DefaultStep = 30 * time.Minute

type Query struct {
	SalonID string
	// Date is local midnight of the requested day in the salon timezone.
	Date        time.Time
	DurationMin int
	BufferMin   int
	StaffID     string
}

type Slot struct {
	StartTime time.Time
	StaffID   string
	Available bool
}

type Calculator struct {
	hours    *workinghours.Provider
	registry *conflicts.Registry
	staff    storage.Catalog
	step     time.Duration
	now      func() time.Time
}

type Option func(*Calculator)

func WithStep(step time.Duration) Option {
	return func(c *Calculator) {
		if step > 0 {
			c.step = step
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCalculator(hours *workinghours.Provider, registry *conflicts.Registry, staff storage.Catalog, opts ...Option) *Calculator {
	c := &Calculator{hours: hours, registry: registry, staff: staff, step: DefaultStep, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Slots lists candidate start times for the day, each annotated with the
// first eligible staff member that is free for the whole duration. The result
// is a point-in-time read; the commit re-checks.
func (c *Calculator) Slots(ctx context.Context, q Query) ([]Slot, error) {
	if q.DurationMin <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", q.DurationMin)
	}
	day := model.StartOfDay(q.Date)

	intervals, err := c.hours.OpenIntervals(ctx, q.SalonID, day)
	if err != nil {
		return nil, err
	}
	if len(intervals) == 0 {
		return []Slot{}, nil
	}

	eligible, err := c.eligibleStaff(ctx, q.SalonID, q.StaffID)
	if err != nil {
		return nil, err
	}
	blocks, err := c.registry.Blocking(ctx, q.SalonID, day, q.StaffID)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(q.DurationMin) * time.Minute
	buffer := time.Duration(max(q.BufferMin, 0)) * time.Minute
	now := c.now()

	slots := []Slot{}
	seen := map[int64]bool{}
	for _, iv := range intervals {
		start := model.At(day, iv.StartMin)
		end := model.At(day, iv.EndMin)
		for _, t := range Candidates(start, end, duration, buffer, c.step, now) {
			if seen[t.Unix()] {
				continue
			}
			seen[t.Unix()] = true
			slot := Slot{StartTime: t}
			for _, st := range eligible {
				if !conflicts.Conflicts(blocks, st.ID, t, t.Add(duration)) {
					slot.StaffID = st.ID
					slot.Available = true
					break
				}
			}
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

func (c *Calculator) eligibleStaff(ctx context.Context, salonID, staffID string) ([]model.Staff, error) {
	if staffID == "" {
		return c.staff.ListActiveStaff(ctx, salonID)
	}
	st, err := c.staff.GetStaff(ctx, salonID, staffID)
	if err != nil {
		return nil, err
	}
	if !st.Active {
		return nil, fmt.Errorf("staff %s inactive: %w", staffID, storage.ErrNotFound)
	}
	return []model.Staff{st}, nil
}

// Candidates walks [windowStart, windowEnd) in step increments and returns
// the start times t with t+duration+buffer strictly before windowEnd.
// Starts before now are skipped.
//
// All times are expected to be in the same location (timezone).
func Candidates(windowStart, windowEnd time.Time, duration, buffer, step time.Duration, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if !windowEnd.After(windowStart) {
		return nil
	}

	var out []time.Time
	// Strictly before: an exact fit at closing is not offered. This keeps the
	// last 45+15 minute slot of a 09:00-18:00 day at 16:30.
	for t := windowStart; t.Add(duration + buffer).Before(windowEnd); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		out = append(out, t)
	}
	return out
}
