package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

type fakeWriter struct {
	msgs  []kafka.Message
	err   error
	calls int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func testEvent() Event {
	start := time.Date(2030, 6, 3, 10, 0, 0, 0, time.UTC)
	return NewEvent(EventCreated, model.Appointment{
		ID: "appt-1", SalonID: "s1", ClientID: "c1", StaffID: "st1",
		StartAt: start, EndAt: start.Add(time.Hour), Status: model.StatusPending,
	}, start.Add(-time.Hour))
}

func TestKafkaDispatcherPublishes(t *testing.T) {
	w := &fakeWriter{}
	d := NewKafkaDispatcherWithWriter(w, KafkaConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ev := testEvent()
	if err := d.Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if msg.Topic != string(EventCreated) || string(msg.Key) != "appt-1" {
		t.Fatalf("unexpected topic/key %s/%s", msg.Topic, msg.Key)
	}
	if kafkax.HeaderValue(msg.Headers, "event_id") != ev.ID {
		t.Fatal("expected event_id header")
	}
	var decoded Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.AppointmentID != "appt-1" || decoded.Status != "PENDING" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestKafkaDispatcherBreakerOpens(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	d := NewKafkaDispatcherWithWriter(w, KafkaConfig{FailureThreshold: 2, OpenTimeout: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		if err := d.Dispatch(context.Background(), testEvent()); err == nil {
			t.Fatal("expected write error")
		}
	}
	err := d.Dispatch(context.Background(), testEvent())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if w.calls != 2 {
		t.Fatalf("expected writer to be skipped while open, got %d calls", w.calls)
	}
	if d.State() != gobreaker.StateOpen.String() {
		t.Fatalf("unexpected state %s", d.State())
	}
}
