package model

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCanceled  Status = "CANCELED"
)

// transitions lists the allowed next states. Terminal states have none.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCanceled},
	StatusConfirmed: {StatusCompleted, StatusCanceled},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// Blocking reports whether an appointment in this status occupies its staff member's time.
func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

type Appointment struct {
	ID               string
	SalonID          string
	ClientID         string
	StaffID          string
	ServiceIDs       []string
	StartAt          time.Time
	EndAt            time.Time
	Status           Status
	Notes            string
	ConfirmationCode string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (a Appointment) Duration() time.Duration {
	return a.EndAt.Sub(a.StartAt)
}

type TimeOff struct {
	ID      string
	StaffID string
	StartAt time.Time
	EndAt   time.Time
	Reason  string
}
