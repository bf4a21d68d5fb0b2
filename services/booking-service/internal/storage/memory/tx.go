package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
)

// tx runs with Store.mu held by Within.
type tx struct {
	s *Store
}

func (t *tx) HasConflict(_ context.Context, staffID string, start, end time.Time, excludeID string) (bool, error) {
	return t.overlaps(staffID, start, end, excludeID), nil
}

func (t *tx) overlaps(staffID string, start, end time.Time, excludeID string) bool {
	for id, a := range t.s.appointments {
		if id == excludeID || a.StaffID != staffID || !a.Status.Blocking() {
			continue
		}
		if a.StartAt.Before(end) && start.Before(a.EndAt) {
			return true
		}
	}
	return false
}

// InsertAppointment mirrors the Postgres exclusion constraint: an overlapping
// active appointment for the same staff is rejected with ErrConflict.
func (t *tx) InsertAppointment(_ context.Context, appt model.Appointment) error {
	if _, exists := t.s.appointments[appt.ID]; exists {
		return fmt.Errorf("appointment %s already exists", appt.ID)
	}
	if appt.Status.Blocking() && t.overlaps(appt.StaffID, appt.StartAt, appt.EndAt, "") {
		return fmt.Errorf("insert appointment: %w", storage.ErrConflict)
	}
	t.s.appointments[appt.ID] = cloneAppointment(appt)
	t.s.links[appt.ID] = slices.Clone(appt.ServiceIDs)
	return nil
}

func (t *tx) GetAppointmentForUpdate(_ context.Context, salonID, appointmentID string) (model.Appointment, error) {
	a, ok := t.s.appointments[appointmentID]
	if !ok || a.SalonID != salonID {
		return model.Appointment{}, fmt.Errorf("appointment %s: %w", appointmentID, storage.ErrNotFound)
	}
	return cloneAppointment(a), nil
}

func (t *tx) GetClient(_ context.Context, salonID, clientID string) (model.Client, error) {
	c, ok := t.s.clients[clientID]
	if !ok || c.SalonID != salonID {
		return model.Client{}, fmt.Errorf("client %s: %w", clientID, storage.ErrNotFound)
	}
	return c, nil
}

func (t *tx) ServiceMinutes(_ context.Context, appointmentID string) (int, error) {
	total := 0
	for _, id := range t.s.links[appointmentID] {
		svc, ok := t.s.services[id]
		if !ok {
			return 0, fmt.Errorf("service %s: %w", id, storage.ErrNotFound)
		}
		total += svc.DurationMin
	}
	return total, nil
}

func (t *tx) UpdateStatus(_ context.Context, salonID, appointmentID string, status model.Status, notes string, at time.Time) error {
	a, ok := t.s.appointments[appointmentID]
	if !ok || a.SalonID != salonID {
		return fmt.Errorf("appointment %s: %w", appointmentID, storage.ErrNotFound)
	}
	a.Status = status
	a.Notes = notes
	a.UpdatedAt = at
	t.s.appointments[appointmentID] = a
	return nil
}

func (t *tx) UpdateSchedule(_ context.Context, salonID, appointmentID, staffID string, start, end, at time.Time) error {
	a, ok := t.s.appointments[appointmentID]
	if !ok || a.SalonID != salonID {
		return fmt.Errorf("appointment %s: %w", appointmentID, storage.ErrNotFound)
	}
	if a.Status.Blocking() && t.overlaps(staffID, start, end, appointmentID) {
		return fmt.Errorf("update schedule: %w", storage.ErrConflict)
	}
	a.StaffID = staffID
	a.StartAt = start
	a.EndAt = end
	a.UpdatedAt = at
	t.s.appointments[appointmentID] = a
	return nil
}
