// Package notify publishes booking lifecycle events after commit. Delivery
// is best effort: callers log dispatch errors and never roll back.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

// EventType doubles as the Kafka topic name, one topic per event.
type EventType string

const (
	EventCreated     EventType = "booking.appointment.created.v1"
	EventCanceled    EventType = "booking.appointment.canceled.v1"
	EventRescheduled EventType = "booking.appointment.rescheduled.v1"
	EventConfirmed   EventType = "booking.appointment.confirmed.v1"
)

type Event struct {
	ID               string     `json:"event_id"`
	Type             EventType  `json:"event_type"`
	SalonID          string     `json:"salon_id"`
	AppointmentID    string     `json:"appointment_id"`
	ClientID         string     `json:"client_id"`
	StaffID          string     `json:"staff_id"`
	Status           string     `json:"status"`
	StartAt          time.Time  `json:"start_at"`
	EndAt            time.Time  `json:"end_at"`
	PreviousStartAt  *time.Time `json:"previous_start_at,omitempty"`
	PreviousStaffID  string     `json:"previous_staff_id,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	ConfirmationCode string     `json:"confirmation_code,omitempty"`
	OccurredAt       time.Time  `json:"occurred_at"`
}

// NewEvent fills the envelope from the appointment's current state.
func NewEvent(typ EventType, appt model.Appointment, at time.Time) Event {
	return Event{
		ID:               uuid.NewString(),
		Type:             typ,
		SalonID:          appt.SalonID,
		AppointmentID:    appt.ID,
		ClientID:         appt.ClientID,
		StaffID:          appt.StaffID,
		Status:           string(appt.Status),
		StartAt:          appt.StartAt,
		EndAt:            appt.EndAt,
		ConfirmationCode: appt.ConfirmationCode,
		OccurredAt:       at,
	}
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) error
}

type DispatcherFunc func(ctx context.Context, ev Event) error

func (f DispatcherFunc) Dispatch(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Nop drops every event.
type Nop struct{}

func (Nop) Dispatch(context.Context, Event) error { return nil }
