package staffing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/conflicts"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage/memory"
)

var day = time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return model.At(day, h*60+m) }

func newSelector() (*Selector, *memory.Store) {
	store := memory.New()
	store.PutStaff(model.Staff{ID: "st1", SalonID: "s1", Name: "Bea", Active: true, SpokenLocales: []string{"en"}})
	store.PutStaff(model.Staff{ID: "st2", SalonID: "s1", Name: "Caio", Active: true, SpokenLocales: []string{"pt", "en"}})
	store.PutStaff(model.Staff{ID: "st3", SalonID: "s1", Name: "Dana", Active: false})
	return NewSelector(store, conflicts.NewRegistry(store)), store
}

func TestSelectFirstFreeInListingOrder(t *testing.T) {
	sel, store := newSelector()
	ctx := context.Background()

	got, err := sel.Select(ctx, "s1", at(10, 0), at(11, 0), "")
	if err != nil || got.Staff.ID != "st1" {
		t.Fatalf("expected st1, got %+v (%v)", got.Staff, err)
	}

	store.PutAppointment(model.Appointment{ID: "a1", SalonID: "s1", StaffID: "st1", StartAt: at(10, 30), EndAt: at(11, 30), Status: model.StatusPending})
	got, err = sel.Select(ctx, "s1", at(10, 0), at(11, 0), "")
	if err != nil || got.Staff.ID != "st2" {
		t.Fatalf("expected st2 when st1 is busy, got %+v (%v)", got.Staff, err)
	}

	store.PutTimeOff(model.TimeOff{StaffID: "st2", StartAt: at(8, 0), EndAt: at(18, 0)})
	if _, err := sel.Select(ctx, "s1", at(10, 0), at(11, 0), ""); !errors.Is(err, ErrNoneAvailable) {
		t.Fatalf("expected ErrNoneAvailable, got %v", err)
	}
}

func TestSelectLanguageIsAdvisory(t *testing.T) {
	sel, _ := newSelector()
	got, err := sel.Select(context.Background(), "s1", at(10, 0), at(11, 0), "pt-BR")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got.Staff.ID != "st1" {
		t.Fatalf("language must not change the choice, got %s", got.Staff.ID)
	}
	if len(got.Warnings) != 1 || got.Warnings[0].Code != WarningLanguageMismatch {
		t.Fatalf("expected language warning, got %+v", got.Warnings)
	}
}

func TestEvaluate(t *testing.T) {
	sel, store := newSelector()
	ctx := context.Background()

	if _, err := sel.Evaluate(ctx, "s1", "nope", at(10, 0), at(11, 0), "", ""); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := sel.Evaluate(ctx, "s1", "st3", at(10, 0), at(11, 0), "", ""); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}

	store.PutAppointment(model.Appointment{ID: "a1", SalonID: "s1", StaffID: "st2", StartAt: at(10, 0), EndAt: at(11, 0), Status: model.StatusConfirmed})
	if _, err := sel.Evaluate(ctx, "s1", "st2", at(10, 30), at(11, 30), "", ""); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	got, err := sel.Evaluate(ctx, "s1", "st2", at(10, 30), at(11, 30), "pt", "a1")
	if err != nil || got.Staff.ID != "st2" || len(got.Warnings) != 0 {
		t.Fatalf("expected own appointment to be ignored, got %+v (%v)", got, err)
	}
}
