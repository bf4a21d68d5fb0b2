// Package booking coordinates booking requests: validation, service and staff
// resolution, the transactional commit and post-commit notifications.
//
// A request moves REQUESTED -> VALIDATED -> COMMITTED or REJECTED. Only the
// commit step holds a transaction; everything before it is a point-in-time
// read that the commit re-checks.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/libs/redact"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/conflicts"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/notify"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/staffing"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/workinghours"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/md-rashed-zaman/salonbook/services/booking-service/internal/booking")

const (
	DefaultBufferMin     = 15
	DefaultCommitTimeout = 5 * time.Second
	DefaultNotifyTimeout = 3 * time.Second
)

type Deps struct {
	Store    storage.Store
	Notifier notify.Dispatcher
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Redactor *redact.Redactor
	Clock    func() time.Time

	// BufferMin is the gap, in minutes, each slot must leave before closing.
	// Zero means no buffer and negative values are treated as zero; the
	// service config supplies DefaultBufferMin.
	BufferMin     int
	SlotStep      time.Duration
	CommitTimeout time.Duration
	NotifyTimeout time.Duration
}

type Coordinator struct {
	store     storage.Store
	notifier  notify.Dispatcher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	redactor  *redact.Redactor
	codes     *ConfirmationCoder
	now       func() time.Time
	hours     *workinghours.Provider
	registry  *conflicts.Registry
	slots     *availability.Calculator
	selector  *staffing.Selector
	bufferMin int

	commitTimeout time.Duration
	notifyTimeout time.Duration
}

func New(d Deps) *Coordinator {
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Redactor == nil {
		d.Redactor = redact.New("")
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	d.BufferMin = max(d.BufferMin, 0)
	if d.CommitTimeout <= 0 {
		d.CommitTimeout = DefaultCommitTimeout
	}
	if d.NotifyTimeout <= 0 {
		d.NotifyTimeout = DefaultNotifyTimeout
	}

	hours := workinghours.NewProvider(d.Store)
	registry := conflicts.NewRegistry(d.Store)
	return &Coordinator{
		store:         d.Store,
		notifier:      d.Notifier,
		logger:        d.Logger,
		metrics:       d.Metrics,
		redactor:      d.Redactor,
		codes:         NewConfirmationCoder(d.Redactor),
		now:           d.Clock,
		hours:         hours,
		registry:      registry,
		slots:         availability.NewCalculator(hours, registry, d.Store, availability.WithStep(d.SlotStep), availability.WithClock(d.Clock)),
		selector:      staffing.NewSelector(d.Store, registry),
		bufferMin:     d.BufferMin,
		commitTimeout: d.CommitTimeout,
		notifyTimeout: d.NotifyTimeout,
	}
}

// GetAvailableSlots is advisory: it reads without locks and the commit
// re-checks every booking.
func (c *Coordinator) GetAvailableSlots(ctx context.Context, salonID string, req SlotsRequest) (slots []availability.Slot, err error) {
	ctx, span := c.start(ctx, "GetAvailableSlots", salonID)
	started := time.Now()
	defer func() { c.finish(span, "slots", err) }()

	req.ServiceIDs = dedupe(req.ServiceIDs)
	if verr := validateStruct(req); verr != nil {
		return nil, verr
	}
	salon, err := c.salon(ctx, salonID)
	if err != nil {
		return nil, err
	}
	day, err := model.ParseDate(req.Date, salon.Location())
	if err != nil {
		return nil, fieldError("date", "must be a date in YYYY-MM-DD format")
	}
	_, totals, err := c.resolveServices(ctx, salonID, req.ServiceIDs)
	if err != nil {
		return nil, err
	}

	slots, err = c.slots.Slots(ctx, availability.Query{
		SalonID:     salonID,
		Date:        day,
		DurationMin: totals.DurationMin,
		BufferMin:   c.bufferMin,
		StaffID:     req.StaffID,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newError(CodeStaffNotFound, "staff member not found or inactive")
		}
		return nil, c.internal(ctx, "slots", salonID, "", err)
	}

	available := 0
	for _, s := range slots {
		if s.Available {
			available++
		}
	}
	c.metrics.SlotQuery(started, available)
	return slots, nil
}

func (c *Coordinator) CreateBooking(ctx context.Context, salonID string, req CreateRequest) (res CreateResult, err error) {
	ctx, span := c.start(ctx, "CreateBooking", salonID)
	defer func() { c.finish(span, "create", err) }()

	// 1. structural validation
	req = req.normalized()
	if verr := validateStruct(req); verr != nil {
		return res, verr
	}
	salon, err := c.salon(ctx, salonID)
	if err != nil {
		return res, err
	}
	day, startAt, verr := dayAndStart(req.Date, req.StartTime, salon.Location(), "date", "start_time")
	if verr != nil {
		return res, verr
	}
	now := c.now()
	if !startAt.After(now) {
		return res, fieldError("start_time", "must be in the future")
	}

	// 2. services and end time
	_, totals, err := c.resolveServices(ctx, salonID, req.ServiceIDs)
	if err != nil {
		return res, err
	}
	endAt := startAt.Add(time.Duration(totals.DurationMin) * time.Minute)

	// 3. business hours
	if err := c.checkBusinessHours(ctx, salonID, day, startAt, endAt); err != nil {
		return res, err
	}

	// 4. staff
	sel, err := c.resolveStaff(ctx, salonID, req.StaffID, startAt, endAt, req.ClientLocale, "")
	if err != nil {
		return res, err
	}
	span.AddEvent("validated", trace.WithAttributes(attribute.String("staff.id", sel.Staff.ID)))

	// 5. client
	client, err := c.store.UpsertClient(ctx, model.Client{
		SalonID:         salonID,
		Phone:           req.ClientPhone,
		Name:            req.ClientName,
		Email:           req.ClientEmail,
		PreferredLocale: req.ClientLocale,
	})
	if err != nil {
		return res, c.internal(ctx, "create", salonID, "", fmt.Errorf("upsert client %s: %w", c.redactor.Phone(req.ClientPhone), err))
	}

	// 6. atomic commit with the authoritative re-check
	appt := model.Appointment{
		ID:         uuid.NewString(),
		SalonID:    salonID,
		ClientID:   client.ID,
		StaffID:    sel.Staff.ID,
		ServiceIDs: req.ServiceIDs,
		StartAt:    startAt,
		EndAt:      endAt,
		Status:     model.StatusPending,
		Notes:      req.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	appt.ConfirmationCode = c.codes.Code(appt.ID)

	err = c.commit(ctx, "create", func(ctx context.Context, tx storage.Tx) error {
		conflict, err := tx.HasConflict(ctx, appt.StaffID, appt.StartAt, appt.EndAt, "")
		if err != nil {
			return err
		}
		if conflict {
			return errSlotTaken
		}
		return tx.InsertAppointment(ctx, appt)
	})
	if err != nil {
		return res, c.commitError(ctx, "create", salonID, appt.ID, err)
	}
	span.AddEvent("committed", trace.WithAttributes(attribute.String("appointment.id", appt.ID)))

	c.dispatch(ctx, notify.NewEvent(notify.EventCreated, appt, c.now()))

	// 7. result
	return CreateResult{
		Appointment:      appt,
		ClientID:         client.ID,
		ConfirmationCode: appt.ConfirmationCode,
		Totals:           totals,
		Warnings:         sel.Warnings,
	}, nil
}

func (c *Coordinator) CancelBooking(ctx context.Context, salonID string, req CancelRequest) (appt model.Appointment, err error) {
	ctx, span := c.start(ctx, "CancelBooking", salonID)
	defer func() { c.finish(span, "cancel", err) }()

	req.Phone = NormalizePhone(req.Phone)
	if verr := validateStruct(req); verr != nil {
		return appt, verr
	}

	now := c.now()
	err = c.commit(ctx, "cancel", func(ctx context.Context, tx storage.Tx) error {
		current, err := c.lockOwned(ctx, tx, salonID, req.AppointmentID, req.Phone)
		if err != nil {
			return err
		}
		if !model.CanTransition(current.Status, model.StatusCanceled) {
			return newError(CodeInvalidStatus, fmt.Sprintf("appointment is %s and cannot be canceled", current.Status))
		}
		notes := current.Notes
		if reason := trimmed(req.Reason); reason != "" {
			notes = appendNote(notes, "Canceled: "+reason)
		}
		if err := tx.UpdateStatus(ctx, salonID, current.ID, model.StatusCanceled, notes, now); err != nil {
			return err
		}
		current.Status = model.StatusCanceled
		current.Notes = notes
		current.UpdatedAt = now
		appt = current
		return nil
	})
	if err != nil {
		return model.Appointment{}, c.commitError(ctx, "cancel", salonID, req.AppointmentID, err)
	}

	ev := notify.NewEvent(notify.EventCanceled, appt, c.now())
	ev.Reason = trimmed(req.Reason)
	c.dispatch(ctx, ev)
	return appt, nil
}

func (c *Coordinator) RescheduleBooking(ctx context.Context, salonID string, req RescheduleRequest) (appt model.Appointment, err error) {
	ctx, span := c.start(ctx, "RescheduleBooking", salonID)
	defer func() { c.finish(span, "reschedule", err) }()

	req.Phone = NormalizePhone(req.Phone)
	req.NewStaffID = trimmed(req.NewStaffID)
	if verr := validateStruct(req); verr != nil {
		return appt, verr
	}
	salon, err := c.salon(ctx, salonID)
	if err != nil {
		return appt, err
	}
	day, newStart, verr := dayAndStart(req.NewDate, req.NewStartTime, salon.Location(), "new_date", "new_start_time")
	if verr != nil {
		return appt, verr
	}
	now := c.now()
	if !newStart.After(now) {
		return appt, fieldError("new_start_time", "must be in the future")
	}

	// Lock-free reads the transaction cannot repeat on every backend:
	// opening hours, active staff and time-off for the target day.
	intervals, err := c.hours.OpenIntervals(ctx, salonID, day)
	if err != nil {
		return appt, c.internal(ctx, "reschedule", salonID, req.AppointmentID, err)
	}
	staff, err := c.store.ListActiveStaff(ctx, salonID)
	if err != nil {
		return appt, c.internal(ctx, "reschedule", salonID, req.AppointmentID, err)
	}
	if req.NewStaffID != "" && !containsStaff(staff, req.NewStaffID) {
		return appt, newError(CodeStaffNotFound, "staff member not found or inactive")
	}
	blocks, err := c.registry.Between(ctx, salonID, day, day.AddDate(0, 0, 2), req.NewStaffID)
	if err != nil {
		return appt, c.internal(ctx, "reschedule", salonID, req.AppointmentID, err)
	}

	var previous model.Appointment
	err = c.commit(ctx, "reschedule", func(ctx context.Context, tx storage.Tx) error {
		current, err := c.lockOwned(ctx, tx, salonID, req.AppointmentID, req.Phone)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return newError(CodeInvalidStatus, fmt.Sprintf("appointment is %s and cannot be rescheduled", current.Status))
		}
		staffID := req.NewStaffID
		if staffID == "" {
			staffID = current.StaffID
			if !containsStaff(staff, staffID) {
				return newError(CodeStaffNotFound, "assigned staff member is no longer active")
			}
		}

		minutes, err := tx.ServiceMinutes(ctx, current.ID)
		if err != nil {
			return err
		}
		duration := time.Duration(minutes) * time.Minute
		if minutes <= 0 {
			duration = current.Duration()
		}
		newEnd := newStart.Add(duration)

		if !workinghours.Within(intervals, newStart, newEnd) {
			return newError(CodeBusinessHoursClosed, "requested time is outside business hours")
		}
		if b := conflicts.FirstConflict(timeOffOnly(blocks), staffID, newStart, newEnd, ""); b != nil {
			return errSlotTaken
		}
		conflict, err := tx.HasConflict(ctx, staffID, newStart, newEnd, current.ID)
		if err != nil {
			return err
		}
		if conflict {
			return errSlotTaken
		}
		if err := tx.UpdateSchedule(ctx, salonID, current.ID, staffID, newStart, newEnd, now); err != nil {
			return err
		}

		previous = current
		current.StaffID = staffID
		current.StartAt = newStart
		current.EndAt = newEnd
		current.UpdatedAt = now
		appt = current
		return nil
	})
	if err != nil {
		return model.Appointment{}, c.commitError(ctx, "reschedule", salonID, req.AppointmentID, err)
	}

	ev := notify.NewEvent(notify.EventRescheduled, appt, c.now())
	ev.PreviousStartAt = &previous.StartAt
	ev.PreviousStaffID = previous.StaffID
	c.dispatch(ctx, ev)
	return appt, nil
}

// ConfirmBooking is the staff-side PENDING -> CONFIRMED transition.
func (c *Coordinator) ConfirmBooking(ctx context.Context, salonID, appointmentID string) (appt model.Appointment, err error) {
	ctx, span := c.start(ctx, "ConfirmBooking", salonID)
	defer func() { c.finish(span, "confirm", err) }()

	appointmentID = trimmed(appointmentID)
	if appointmentID == "" {
		return appt, fieldError("appointment_id", "is required")
	}

	now := c.now()
	err = c.commit(ctx, "confirm", func(ctx context.Context, tx storage.Tx) error {
		current, err := tx.GetAppointmentForUpdate(ctx, salonID, appointmentID)
		if err != nil {
			return err
		}
		if !model.CanTransition(current.Status, model.StatusConfirmed) {
			return newError(CodeInvalidStatus, fmt.Sprintf("appointment is %s and cannot be confirmed", current.Status))
		}
		if err := tx.UpdateStatus(ctx, salonID, current.ID, model.StatusConfirmed, current.Notes, now); err != nil {
			return err
		}
		current.Status = model.StatusConfirmed
		current.UpdatedAt = now
		appt = current
		return nil
	})
	if err != nil {
		return model.Appointment{}, c.commitError(ctx, "confirm", salonID, appointmentID, err)
	}

	c.dispatch(ctx, notify.NewEvent(notify.EventConfirmed, appt, c.now()))
	return appt, nil
}

func (c *Coordinator) ListAppointments(ctx context.Context, salonID string, limit int) (appts []model.Appointment, err error) {
	ctx, span := c.start(ctx, "ListAppointments", salonID)
	defer func() { c.finish(span, "list", err) }()

	appts, err = c.store.ListAppointments(ctx, salonID, storage.ClampLimit(limit))
	if err != nil {
		return nil, c.internal(ctx, "list", salonID, "", err)
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	return appts, nil
}

// CompleteElapsed moves CONFIRMED appointments that have ended to COMPLETED.
func (c *Coordinator) CompleteElapsed(ctx context.Context) (int, error) {
	n, err := c.store.CompleteElapsed(ctx, c.now())
	if err != nil {
		return 0, err
	}
	c.metrics.AddCompleted(n)
	return n, nil
}
