// Package memory is an in-process Store used by tests and single-node
// demos. A unit of work holds the store's write lock for its whole duration,
// which serializes commits the way SERIALIZABLE isolation does in Postgres.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
)

type Store struct {
	mu sync.RWMutex

	salons       map[string]model.Salon
	services     map[string]model.Service
	staff        map[string]model.Staff
	timeOff      map[string]model.TimeOff
	clients      map[string]model.Client
	clientPhones map[string]string
	appointments map[string]model.Appointment
	links        map[string][]string

	seq int
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		salons:       map[string]model.Salon{},
		services:     map[string]model.Service{},
		staff:        map[string]model.Staff{},
		timeOff:      map[string]model.TimeOff{},
		clients:      map[string]model.Client{},
		clientPhones: map[string]string{},
		appointments: map[string]model.Appointment{},
		links:        map[string][]string{},
	}
}

func (s *Store) PutSalon(salon model.Salon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.salons[salon.ID] = salon
}

func (s *Store) PutService(svc model.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
}

// PutStaff stores a staff member. A zero CreatedAt is replaced by a
// monotonically increasing stamp so insertion order is the listing order.
func (s *Store) PutStaff(st model.Staff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Unix(0, 0).UTC().Add(time.Duration(s.seq) * time.Millisecond)
	}
	st.SpokenLocales = slices.Clone(st.SpokenLocales)
	s.staff[st.ID] = st
}

func (s *Store) PutTimeOff(off model.TimeOff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if off.ID == "" {
		off.ID = uuid.NewString()
	}
	s.timeOff[off.ID] = off
}

// PutAppointment seeds an appointment without any conflict checks.
func (s *Store) PutAppointment(appt model.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[appt.ID] = slices.Clone(appt.ServiceIDs)
	s.appointments[appt.ID] = cloneAppointment(appt)
}

func (s *Store) GetSalon(_ context.Context, salonID string) (model.Salon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	salon, ok := s.salons[salonID]
	if !ok {
		return model.Salon{}, fmt.Errorf("salon %s: %w", salonID, storage.ErrNotFound)
	}
	return salon, nil
}

func (s *Store) GetServices(_ context.Context, salonID string, ids []string) ([]model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Service
	for _, id := range ids {
		if svc, ok := s.services[id]; ok && svc.SalonID == salonID {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (s *Store) GetStaff(_ context.Context, salonID, staffID string) (model.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.staff[staffID]
	if !ok || st.SalonID != salonID {
		return model.Staff{}, fmt.Errorf("staff %s: %w", staffID, storage.ErrNotFound)
	}
	return st, nil
}

func (s *Store) ListActiveStaff(_ context.Context, salonID string) ([]model.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Staff
	for _, st := range s.staff {
		if st.SalonID == salonID && st.Active {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListBlockingAppointments(_ context.Context, salonID string, from, to time.Time, staffID string) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Appointment
	for _, a := range s.appointments {
		if a.SalonID != salonID || !a.Status.Blocking() {
			continue
		}
		if staffID != "" && a.StaffID != staffID {
			continue
		}
		if a.StartAt.Before(to) && a.EndAt.After(from) {
			out = append(out, cloneAppointment(a))
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *Store) ListTimeOff(_ context.Context, salonID string, from, to time.Time, staffID string) ([]model.TimeOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TimeOff
	for _, off := range s.timeOff {
		if st, ok := s.staff[off.StaffID]; !ok || st.SalonID != salonID {
			continue
		}
		if staffID != "" && off.StaffID != staffID {
			continue
		}
		if off.StartAt.Before(to) && off.EndAt.After(from) {
			out = append(out, off)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (s *Store) ListAppointments(_ context.Context, salonID string, limit int) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Appointment
	for _, a := range s.appointments {
		if a.SalonID == salonID {
			out = append(out, cloneAppointment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.After(out[j].StartAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit = storage.ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpsertClient(_ context.Context, c model.Client) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	key := c.SalonID + "|" + c.Phone
	if id, ok := s.clientPhones[key]; ok {
		existing := s.clients[id]
		existing.Name = c.Name
		if c.Email != "" {
			existing.Email = c.Email
		}
		if c.PreferredLocale != "" {
			existing.PreferredLocale = c.PreferredLocale
		}
		existing.UpdatedAt = now
		s.clients[id] = existing
		return existing, nil
	}
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.clients[c.ID] = c
	s.clientPhones[key] = c.ID
	return c, nil
}

func (s *Store) FindClientByPhone(_ context.Context, salonID, phone string) (model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.clientPhones[salonID+"|"+phone]
	if !ok {
		return model.Client{}, fmt.Errorf("client: %w", storage.ErrNotFound)
	}
	return s.clients[id], nil
}

func (s *Store) CompleteElapsed(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := time.Now().UTC()
	for id, a := range s.appointments {
		if a.Status == model.StatusConfirmed && !a.EndAt.After(cutoff) {
			a.Status = model.StatusCompleted
			a.UpdatedAt = now
			s.appointments[id] = a
			n++
		}
	}
	return n, nil
}

// Within holds the write lock for the duration of fn and restores the
// appointment tables if fn fails or ctx is done by the time it returns.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	appts := make(map[string]model.Appointment, len(s.appointments))
	for k, v := range s.appointments {
		appts[k] = v
	}
	links := make(map[string][]string, len(s.links))
	for k, v := range s.links {
		links[k] = v
	}

	err := fn(ctx, &tx{s: s})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.appointments = appts
		s.links = links
		return err
	}
	return nil
}

func cloneAppointment(a model.Appointment) model.Appointment {
	a.ServiceIDs = slices.Clone(a.ServiceIDs)
	return a
}

func sortByStart(appts []model.Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		if !appts[i].StartAt.Equal(appts[j].StartAt) {
			return appts[i].StartAt.Before(appts[j].StartAt)
		}
		return appts[i].ID < appts[j].ID
	})
}
