// Package storage declares the persistence contracts of the booking engine.
// Reads are point-in-time and non-authoritative; every write goes through a
// UnitOfWork so the commit-time conflict check and the write share one
// transaction.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the backend rejects a write because it would
	// overlap another active appointment or lost a serialization race.
	ErrConflict = errors.New("conflict")
)

// Catalog is the read model of salons, services and staff.
type Catalog interface {
	GetSalon(ctx context.Context, salonID string) (model.Salon, error)
	// GetServices returns the services among ids that belong to salonID,
	// active or not. Unknown ids are simply absent from the result.
	GetServices(ctx context.Context, salonID string, ids []string) ([]model.Service, error)
	GetStaff(ctx context.Context, salonID, staffID string) (model.Staff, error)
	// ListActiveStaff returns active staff in stable order: creation time, then id.
	ListActiveStaff(ctx context.Context, salonID string) ([]model.Staff, error)
}

// Calendar reads appointments and time-off. An empty staffID means every staff member.
type Calendar interface {
	ListBlockingAppointments(ctx context.Context, salonID string, from, to time.Time, staffID string) ([]model.Appointment, error)
	ListTimeOff(ctx context.Context, salonID string, from, to time.Time, staffID string) ([]model.TimeOff, error)
	ListAppointments(ctx context.Context, salonID string, limit int) ([]model.Appointment, error)
}

type Clients interface {
	// UpsertClient finds the client by (SalonID, Phone) or creates it. On a
	// match the name is replaced and email/locale are replaced when non-empty.
	UpsertClient(ctx context.Context, c model.Client) (model.Client, error)
	FindClientByPhone(ctx context.Context, salonID, phone string) (model.Client, error)
}

// Tx is the set of reads and writes available inside a unit of work.
type Tx interface {
	// HasConflict reports whether an active appointment of staffID overlaps
	// [start, end). excludeID, when set, is ignored (reschedule).
	HasConflict(ctx context.Context, staffID string, start, end time.Time, excludeID string) (bool, error)
	InsertAppointment(ctx context.Context, appt model.Appointment) error
	// GetAppointmentForUpdate loads and locks the appointment row.
	GetAppointmentForUpdate(ctx context.Context, salonID, appointmentID string) (model.Appointment, error)
	GetClient(ctx context.Context, salonID, clientID string) (model.Client, error)
	// ServiceMinutes sums the durations of the services linked to an appointment.
	ServiceMinutes(ctx context.Context, appointmentID string) (int, error)
	UpdateStatus(ctx context.Context, salonID, appointmentID string, status model.Status, notes string, at time.Time) error
	UpdateSchedule(ctx context.Context, salonID, appointmentID, staffID string, start, end, at time.Time) error
}

// UnitOfWork runs fn in one transaction. The transaction commits when fn
// returns nil and rolls back otherwise, including when ctx expires.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Maintenance interface {
	// CompleteElapsed moves CONFIRMED appointments that ended before cutoff to COMPLETED.
	CompleteElapsed(ctx context.Context, cutoff time.Time) (int, error)
}

type Store interface {
	Catalog
	Calendar
	Clients
	UnitOfWork
	Maintenance
}

const MaxListLimit = 200

// ClampLimit applies the listing default (50) and ceiling.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
