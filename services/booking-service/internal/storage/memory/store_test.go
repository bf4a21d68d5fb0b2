package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
)

var base = time.Date(2030, 6, 3, 10, 0, 0, 0, time.UTC)

func TestWithinRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Within(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertAppointment(ctx, model.Appointment{
			ID: "a1", SalonID: "s1", StaffID: "st1", StartAt: base, EndAt: base.Add(time.Hour), Status: model.StatusPending,
		}); err != nil {
			t.Fatalf("insert: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	appts, _ := s.ListAppointments(ctx, "s1", 10)
	if len(appts) != 0 {
		t.Fatalf("expected rollback, got %d appointments", len(appts))
	}
}

func TestInsertRejectsOverlap(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.PutAppointment(model.Appointment{
		ID: "a1", SalonID: "s1", StaffID: "st1", StartAt: base, EndAt: base.Add(time.Hour), Status: model.StatusConfirmed,
	})

	err := s.Within(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertAppointment(ctx, model.Appointment{
			ID: "a2", SalonID: "s1", StaffID: "st1", StartAt: base.Add(30 * time.Minute), EndAt: base.Add(90 * time.Minute), Status: model.StatusPending,
		})
	})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Back-to-back is fine on half-open intervals.
	err = s.Within(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertAppointment(ctx, model.Appointment{
			ID: "a3", SalonID: "s1", StaffID: "st1", StartAt: base.Add(time.Hour), EndAt: base.Add(2 * time.Hour), Status: model.StatusPending,
		})
	})
	if err != nil {
		t.Fatalf("expected adjacent insert to succeed, got %v", err)
	}
}

func TestCanceledDoesNotBlock(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.PutAppointment(model.Appointment{
		ID: "a1", SalonID: "s1", StaffID: "st1", StartAt: base, EndAt: base.Add(time.Hour), Status: model.StatusCanceled,
	})
	got, err := s.ListBlockingAppointments(ctx, "s1", base.Add(-time.Hour), base.Add(2*time.Hour), "")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no blocking appointments, got %d (%v)", len(got), err)
	}
	var conflict bool
	_ = s.Within(ctx, func(ctx context.Context, tx storage.Tx) error {
		conflict, _ = tx.HasConflict(ctx, "st1", base, base.Add(time.Hour), "")
		return nil
	})
	if conflict {
		t.Fatal("canceled appointment must not conflict")
	}
}

func TestUpsertClientRefreshesFields(t *testing.T) {
	s := New()
	ctx := context.Background()
	first, err := s.UpsertClient(ctx, model.Client{SalonID: "s1", Phone: "+15550001", Name: "Ana", Email: "ana@example.com", PreferredLocale: "pt"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := s.UpsertClient(ctx, model.Client{SalonID: "s1", Phone: "+15550001", Name: "Ana Maria"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("expected the same client id")
	}
	if second.Name != "Ana Maria" || second.Email != "ana@example.com" || second.PreferredLocale != "pt" {
		t.Fatalf("unexpected refreshed client: %+v", second)
	}
	other, _ := s.UpsertClient(ctx, model.Client{SalonID: "s2", Phone: "+15550001", Name: "Ana"})
	if other.ID == first.ID {
		t.Fatal("clients must be scoped per salon")
	}
}

func TestListActiveStaffStableOrder(t *testing.T) {
	s := New()
	s.PutStaff(model.Staff{ID: "z", SalonID: "s1", Active: true})
	s.PutStaff(model.Staff{ID: "a", SalonID: "s1", Active: true})
	s.PutStaff(model.Staff{ID: "m", SalonID: "s1", Active: false})
	got, _ := s.ListActiveStaff(context.Background(), "s1")
	if len(got) != 2 || got[0].ID != "z" || got[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestCompleteElapsed(t *testing.T) {
	s := New()
	s.PutAppointment(model.Appointment{ID: "done", SalonID: "s1", StaffID: "st1", StartAt: base, EndAt: base.Add(time.Hour), Status: model.StatusConfirmed})
	s.PutAppointment(model.Appointment{ID: "pending", SalonID: "s1", StaffID: "st1", StartAt: base.Add(time.Hour), EndAt: base.Add(2 * time.Hour), Status: model.StatusPending})
	s.PutAppointment(model.Appointment{ID: "later", SalonID: "s1", StaffID: "st1", StartAt: base.Add(3 * time.Hour), EndAt: base.Add(4 * time.Hour), Status: model.StatusConfirmed})

	n, err := s.CompleteElapsed(context.Background(), base.Add(2*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("expected 1 completed, got %d (%v)", n, err)
	}
	appts, _ := s.ListAppointments(context.Background(), "s1", 10)
	for _, a := range appts {
		want := map[string]model.Status{"done": model.StatusCompleted, "pending": model.StatusPending, "later": model.StatusConfirmed}[a.ID]
		if a.Status != want {
			t.Fatalf("%s: expected %s, got %s", a.ID, want, a.Status)
		}
	}
}
