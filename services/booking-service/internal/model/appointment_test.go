package model

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCanceled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCanceled, false},
		{StatusCanceled, StatusPending, false},
		{StatusCanceled, StatusConfirmed, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s,%s)=%v want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestBlockingAndTerminal(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed} {
		if !s.Blocking() || s.Terminal() {
			t.Fatalf("%s should block and be non-terminal", s)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusCanceled} {
		if s.Blocking() || !s.Terminal() {
			t.Fatalf("%s should be terminal and not block", s)
		}
	}
}

func TestParseClockAndAt(t *testing.T) {
	m, err := ParseClock("14:30")
	if err != nil || m != 870 {
		t.Fatalf("expected 870, got %d (%v)", m, err)
	}
	if _, err := ParseClock("25:00"); err == nil {
		t.Fatal("expected invalid clock error")
	}
	day, err := ParseDate("2030-06-03", time.UTC)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	got := At(day, m)
	if !got.Equal(time.Date(2030, 6, 3, 14, 30, 0, 0, time.UTC)) || MinuteOfDay(got) != 870 {
		t.Fatalf("unexpected instant %s", got)
	}
}

func TestSalonLocationFallback(t *testing.T) {
	if (Salon{Timezone: "Not/AZone"}).Location() != time.UTC {
		t.Fatal("expected UTC fallback")
	}
}

func TestStaffSpeaks(t *testing.T) {
	s := Staff{SpokenLocales: []string{"en", "pt-BR"}}
	if !s.Speaks("pt") || !s.Speaks("EN_us") || s.Speaks("fr") {
		t.Fatal("unexpected locale matching")
	}
	if !s.Speaks("") {
		t.Fatal("empty locale should always match")
	}
}
