// Package workinghours turns a salon's weekday schedule strings into open
// intervals measured in minutes since local midnight.
package workinghours

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

type Interval struct {
	StartMin int
	EndMin   int
}

// Contains reports whether [startMin, endMin) fits inside the interval.
func (iv Interval) Contains(startMin, endMin int) bool {
	return startMin >= iv.StartMin && endMin <= iv.EndMin
}

// DefaultSchedule applies to salons that have no schedule configured at all.
var DefaultSchedule = map[time.Weekday]string{
	time.Monday:    "09:00-18:00",
	time.Tuesday:   "09:00-18:00",
	time.Wednesday: "09:00-18:00",
	time.Thursday:  "09:00-18:00",
	time.Friday:    "09:00-18:00",
	time.Saturday:  "09:00-16:00",
	time.Sunday:    "closed",
}

var rangePattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)-([01]\d|2[0-3]|24):([0-5]\d)$`)

// Parse reads a schedule string like "09:00-12:00,14:00-18:00". "closed" and
// the empty string yield no intervals; malformed ranges are dropped.
// Overlapping or touching ranges are merged, so the result is sorted and
// disjoint.
func Parse(schedule string) []Interval {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" || strings.EqualFold(schedule, "closed") {
		return nil
	}
	var out []Interval
	for _, part := range strings.Split(schedule, ",") {
		m := rangePattern.FindStringSubmatch(strings.ReplaceAll(part, " ", ""))
		if m == nil {
			continue
		}
		start := atoi2(m[1])*60 + atoi2(m[2])
		end := atoi2(m[3])*60 + atoi2(m[4])
		if end > 24*60 || start >= end {
			continue
		}
		out = append(out, Interval{StartMin: start, EndMin: end})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMin < out[j].StartMin })
	return merge(out)
}

// merge folds sorted intervals that overlap or share a boundary.
func merge(sorted []Interval) []Interval {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if iv.StartMin <= last.EndMin {
			last.EndMin = max(last.EndMin, iv.EndMin)
			continue
		}
		out = append(out, iv)
	}
	return out
}

// ForDay returns the open intervals of salon on weekday.
func ForDay(salon model.Salon, weekday time.Weekday) []Interval {
	schedule := salon.WorkingHours
	if schedule == nil {
		schedule = DefaultSchedule
	}
	return Parse(schedule[weekday])
}

type SalonReader interface {
	GetSalon(ctx context.Context, salonID string) (model.Salon, error)
}

type Provider struct {
	salons SalonReader
}

func NewProvider(salons SalonReader) *Provider {
	return &Provider{salons: salons}
}

// OpenIntervals returns the open intervals for date. The weekday is taken in
// the salon's timezone.
func (p *Provider) OpenIntervals(ctx context.Context, salonID string, date time.Time) ([]Interval, error) {
	salon, err := p.salons.GetSalon(ctx, salonID)
	if err != nil {
		return nil, err
	}
	return ForDay(salon, date.In(salon.Location()).Weekday()), nil
}

// Within reports whether [start, end) lies inside one of the intervals of
// start's calendar day. start and end must already be in the salon timezone.
func Within(intervals []Interval, start, end time.Time) bool {
	if !end.After(start) {
		return false
	}
	startMin := model.MinuteOfDay(start)
	endMin := startMin + int((end.Sub(start)+time.Minute-1)/time.Minute)
	for _, iv := range intervals {
		if iv.Contains(startMin, endMin) {
			return true
		}
	}
	return false
}

func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}
