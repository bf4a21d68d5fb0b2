// Package conflicts lists the intervals that block staff members on a given day.
package conflicts

import (
	"context"
	"sort"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
)

type Kind string

const (
	KindAppointment Kind = "appointment"
	KindTimeOff     Kind = "time_off"
)

// Block is a half-open busy interval [Start, End) owned by one staff member.
type Block struct {
	StaffID string
	Start   time.Time
	End     time.Time
	Kind    Kind
	RefID   string
}

type Registry struct {
	calendar storage.Calendar
}

func NewRegistry(calendar storage.Calendar) *Registry {
	return &Registry{calendar: calendar}
}

// Blocking returns active appointments and time-off touching the local day of
// date, ordered by start. An empty staffID covers every staff member.
func (r *Registry) Blocking(ctx context.Context, salonID string, date time.Time, staffID string) ([]Block, error) {
	from := model.StartOfDay(date)
	to := from.AddDate(0, 0, 1)
	return r.Between(ctx, salonID, from, to, staffID)
}

// Between is Blocking for an arbitrary window.
func (r *Registry) Between(ctx context.Context, salonID string, from, to time.Time, staffID string) ([]Block, error) {
	appts, err := r.calendar.ListBlockingAppointments(ctx, salonID, from, to, staffID)
	if err != nil {
		return nil, err
	}
	offs, err := r.calendar.ListTimeOff(ctx, salonID, from, to, staffID)
	if err != nil {
		return nil, err
	}

	blocks := make([]Block, 0, len(appts)+len(offs))
	for _, a := range appts {
		if !a.Status.Blocking() {
			continue
		}
		blocks = append(blocks, Block{StaffID: a.StaffID, Start: a.StartAt, End: a.EndAt, Kind: KindAppointment, RefID: a.ID})
	}
	for _, off := range offs {
		blocks = append(blocks, Block{StaffID: off.StaffID, Start: off.StartAt, End: off.EndAt, Kind: KindTimeOff, RefID: off.ID})
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		if !blocks[i].Start.Equal(blocks[j].Start) {
			return blocks[i].Start.Before(blocks[j].Start)
		}
		return blocks[i].StaffID < blocks[j].StaffID
	})
	return blocks, nil
}

// Overlaps is the half-open test: [s0, s1) and [b0, b1) overlap iff s0 < b1 && s1 > b0.
func Overlaps(s0, s1, b0, b1 time.Time) bool {
	return s0.Before(b1) && s1.After(b0)
}

// Conflicts reports whether any block of staffID overlaps [start, end).
func Conflicts(blocks []Block, staffID string, start, end time.Time) bool {
	return FirstConflict(blocks, staffID, start, end, "") != nil
}

// FirstConflict returns the first block of staffID overlapping [start, end),
// ignoring the appointment excludeRef.
func FirstConflict(blocks []Block, staffID string, start, end time.Time, excludeRef string) *Block {
	for i := range blocks {
		b := &blocks[i]
		if b.StaffID != staffID {
			continue
		}
		if excludeRef != "" && b.Kind == KindAppointment && b.RefID == excludeRef {
			continue
		}
		if Overlaps(start, end, b.Start, b.End) {
			return b
		}
	}
	return nil
}
