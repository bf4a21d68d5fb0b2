package workinghours

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name     string
		schedule string
		want     []Interval
	}{
		{"single", "09:00-17:00", []Interval{{540, 1020}}},
		{"split", "14:00-18:00, 09:00-12:00", []Interval{{540, 720}, {840, 1080}}},
		{"closed", "closed", nil},
		{"closed upper", "CLOSED", nil},
		{"empty", "", nil},
		{"malformed dropped", "9-17,10:00-11:00", []Interval{{600, 660}}},
		{"start after end dropped", "18:00-09:00", nil},
		{"equal dropped", "10:00-10:00", nil},
		{"bad minutes dropped", "09:75-10:00", nil},
		{"until midnight", "20:00-24:00", []Interval{{1200, 1440}}},
		{"overlapping merged", "09:00-12:00,10:15-14:00", []Interval{{540, 840}}},
		{"touching merged", "12:00-18:00,09:00-12:00", []Interval{{540, 1080}}},
		{"contained merged", "09:00-18:00,10:00-11:00,19:00-20:00", []Interval{{540, 1080}, {1140, 1200}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.schedule)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

type salonStub map[string]model.Salon

func (s salonStub) GetSalon(_ context.Context, id string) (model.Salon, error) {
	salon, ok := s[id]
	if !ok {
		return model.Salon{}, errors.New("missing")
	}
	return salon, nil
}

func TestOpenIntervalsDefaultSchedule(t *testing.T) {
	p := NewProvider(salonStub{"s1": {ID: "s1"}})
	ctx := context.Background()

	monday := time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)
	got, err := p.OpenIntervals(ctx, "s1", monday)
	if err != nil || len(got) != 1 || got[0] != (Interval{540, 1080}) {
		t.Fatalf("unexpected monday default %v (%v)", got, err)
	}
	got, _ = p.OpenIntervals(ctx, "s1", monday.AddDate(0, 0, 5))
	if len(got) != 1 || got[0] != (Interval{540, 960}) {
		t.Fatalf("unexpected saturday default %v", got)
	}
	got, _ = p.OpenIntervals(ctx, "s1", monday.AddDate(0, 0, 6))
	if len(got) != 0 {
		t.Fatalf("expected sunday closed, got %v", got)
	}
}

func TestOpenIntervalsConfiguredScheduleMissingDay(t *testing.T) {
	p := NewProvider(salonStub{"s1": {ID: "s1", WorkingHours: map[time.Weekday]string{time.Tuesday: "10:00-14:00"}}})
	monday := time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)
	got, err := p.OpenIntervals(context.Background(), "s1", monday)
	if err != nil || len(got) != 0 {
		t.Fatalf("missing entry must be closed, got %v (%v)", got, err)
	}
}

func TestOpenIntervalsUsesSalonTimezone(t *testing.T) {
	p := NewProvider(salonStub{"s1": {ID: "s1", Timezone: "Asia/Tokyo"}})
	// Sunday 20:00 UTC is Monday 05:00 in Tokyo.
	got, err := p.OpenIntervals(context.Background(), "s1", time.Date(2030, 6, 2, 20, 0, 0, 0, time.UTC))
	if err != nil || len(got) != 1 {
		t.Fatalf("expected monday hours in Tokyo, got %v (%v)", got, err)
	}
}

func TestWithin(t *testing.T) {
	ivs := Parse("09:00-12:00,14:00-18:00")
	day := time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return model.At(day, h*60+m) }

	if !Within(ivs, at(9, 0), at(12, 0)) {
		t.Fatal("expected exact fit to be within")
	}
	if Within(ivs, at(11, 30), at(12, 30)) {
		t.Fatal("expected overrun past closing to be rejected")
	}
	if Within(ivs, at(11, 0), at(14, 30)) {
		t.Fatal("expected window spanning the break to be rejected")
	}
	if Within(ivs, at(17, 0), at(17, 0)) {
		t.Fatal("expected empty window to be rejected")
	}

	seam := Parse("09:00-12:00,12:00-18:00")
	if !Within(seam, at(11, 30), at(12, 30)) {
		t.Fatal("expected window across a shared boundary to be within")
	}
}
