// Package staffing resolves which staff member takes a booking.
package staffing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/conflicts"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
)

var (
	ErrNoneAvailable = errors.New("no staff available")
	ErrInactive      = errors.New("staff inactive")
	ErrBusy          = errors.New("staff busy")
)

const WarningLanguageMismatch = "STAFF_LANGUAGE_MISMATCH"

type Warning struct {
	Code    string
	Message string
}

type Selection struct {
	Staff    model.Staff
	Warnings []Warning
}

type Selector struct {
	catalog  storage.Catalog
	registry *conflicts.Registry
}

func NewSelector(catalog storage.Catalog, registry *conflicts.Registry) *Selector {
	return &Selector{catalog: catalog, registry: registry}
}

// Select returns the first active staff member, in listing order, with no
// conflict in [start, end). There is no load balancing.
func (s *Selector) Select(ctx context.Context, salonID string, start, end time.Time, clientLocale string) (Selection, error) {
	staff, err := s.catalog.ListActiveStaff(ctx, salonID)
	if err != nil {
		return Selection{}, err
	}
	if len(staff) == 0 {
		return Selection{}, ErrNoneAvailable
	}
	blocks, err := s.registry.Between(ctx, salonID, start, end, "")
	if err != nil {
		return Selection{}, err
	}
	for _, st := range staff {
		if !conflicts.Conflicts(blocks, st.ID, start, end) {
			return Selection{Staff: st, Warnings: languageWarnings(st, clientLocale)}, nil
		}
	}
	return Selection{}, ErrNoneAvailable
}

// Evaluate checks an explicitly requested staff member. excludeRef names an
// appointment to ignore (the one being rescheduled).
func (s *Selector) Evaluate(ctx context.Context, salonID, staffID string, start, end time.Time, clientLocale, excludeRef string) (Selection, error) {
	st, err := s.catalog.GetStaff(ctx, salonID, staffID)
	if err != nil {
		return Selection{}, err
	}
	if !st.Active {
		return Selection{}, fmt.Errorf("%w: %s", ErrInactive, staffID)
	}
	blocks, err := s.registry.Between(ctx, salonID, start, end, staffID)
	if err != nil {
		return Selection{}, err
	}
	if b := conflicts.FirstConflict(blocks, staffID, start, end, excludeRef); b != nil {
		return Selection{}, fmt.Errorf("%w: %s blocked by %s %s", ErrBusy, staffID, b.Kind, b.RefID)
	}
	return Selection{Staff: st, Warnings: languageWarnings(st, clientLocale)}, nil
}

func languageWarnings(st model.Staff, locale string) []Warning {
	if locale == "" || len(st.SpokenLocales) == 0 || st.Speaks(locale) {
		return nil
	}
	return []Warning{{
		Code:    WarningLanguageMismatch,
		Message: fmt.Sprintf("%s does not list %s among spoken languages", nameOrID(st), locale),
	}}
}

func nameOrID(st model.Staff) string {
	if st.Name != "" {
		return st.Name
	}
	return st.ID
}
