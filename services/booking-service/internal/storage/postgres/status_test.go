package postgres

import (
	"testing"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []model.Status{model.StatusPending, model.StatusConfirmed, model.StatusCompleted, model.StatusCanceled} {
		got, err := parseStatus(string(s))
		if err != nil || got != s {
			t.Fatalf("parseStatus(%q) = %q, %v", s, got, err)
		}
	}
	for _, bad := range []string{"", "booked", "pending"} {
		if _, err := parseStatus(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
