package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/conflicts"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/notify"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/staffing"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/workinghours"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errSlotTaken = newError(CodeTimeConflict, "requested time is no longer available")

func (c *Coordinator) start(ctx context.Context, op, salonID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "booking."+op, trace.WithAttributes(attribute.String("salon.id", salonID)))
	span.AddEvent("requested")
	return ctx, span
}

// finish records the terminal state on the span and the outcome counter.
func (c *Coordinator) finish(span trace.Span, op string, err error) {
	defer span.End()
	if err == nil {
		c.metrics.Outcome(op, "ok")
		return
	}
	code := CodeOf(err)
	c.metrics.Outcome(op, strings.ToLower(string(code)))
	span.AddEvent("rejected", trace.WithAttributes(attribute.String("error.code", string(code))))
	if code == CodeInternal {
		span.SetStatus(codes.Error, err.Error())
	}
}

func (c *Coordinator) salon(ctx context.Context, salonID string) (model.Salon, error) {
	if trimmed(salonID) == "" {
		return model.Salon{}, fieldError("salon_id", "is required")
	}
	salon, err := c.store.GetSalon(ctx, salonID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Salon{}, fieldError("salon_id", "unknown salon")
		}
		return model.Salon{}, c.internal(ctx, "salon", salonID, "", err)
	}
	return salon, nil
}

// resolveServices loads ids in request order and sums duration and price.
// Any missing or inactive id fails the whole request.
func (c *Coordinator) resolveServices(ctx context.Context, salonID string, ids []string) ([]model.Service, Totals, error) {
	found, err := c.store.GetServices(ctx, salonID, ids)
	if err != nil {
		return nil, Totals{}, c.internal(ctx, "services", salonID, "", err)
	}
	byID := make(map[string]model.Service, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}

	var (
		services = make([]model.Service, 0, len(ids))
		totals   Totals
		missing  []string
	)
	for _, id := range ids {
		s, ok := byID[id]
		if !ok || !s.Active {
			missing = append(missing, id)
			continue
		}
		services = append(services, s)
		totals.DurationMin += s.DurationMin
		totals.PriceCents += s.PriceCents
	}
	if len(missing) > 0 {
		return nil, Totals{}, newError(CodeServiceNotFound, "service not found or inactive: "+strings.Join(missing, ", "))
	}
	return services, totals, nil
}

// checkBusinessHours requires [start, end) inside one open interval of the
// salon's local day. Buffer time is not counted.
func (c *Coordinator) checkBusinessHours(ctx context.Context, salonID string, day, start, end time.Time) error {
	intervals, err := c.hours.OpenIntervals(ctx, salonID, day)
	if err != nil {
		return c.internal(ctx, "hours", salonID, "", err)
	}
	if !workinghours.Within(intervals, start, end) {
		return newError(CodeBusinessHoursClosed, "requested time is outside business hours")
	}
	return nil
}

func (c *Coordinator) resolveStaff(ctx context.Context, salonID, staffID string, start, end time.Time, locale, excludeRef string) (staffing.Selection, error) {
	var (
		sel staffing.Selection
		err error
	)
	if staffID != "" {
		sel, err = c.selector.Evaluate(ctx, salonID, staffID, start, end, locale, excludeRef)
	} else {
		sel, err = c.selector.Select(ctx, salonID, start, end, locale)
	}
	switch {
	case err == nil:
		return sel, nil
	case errors.Is(err, staffing.ErrBusy):
		return sel, errSlotTaken
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, staffing.ErrInactive):
		return sel, newError(CodeStaffNotFound, "staff member not found or inactive")
	case errors.Is(err, staffing.ErrNoneAvailable):
		return sel, newError(CodeStaffNotFound, "no staff member is available at the requested time")
	default:
		return sel, c.internal(ctx, "staff", salonID, "", err)
	}
}

// commit runs fn in one transaction bounded by the commit timeout.
func (c *Coordinator) commit(ctx context.Context, op string, fn func(ctx context.Context, tx storage.Tx) error) error {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.commitTimeout)
	defer cancel()
	err := c.store.Within(ctx, fn)
	c.metrics.ObserveCommit(op, started)
	return err
}

// lockOwned loads the appointment for update and checks that phone belongs to
// its client. A mismatch reads as not found so ids cannot be probed.
func (c *Coordinator) lockOwned(ctx context.Context, tx storage.Tx, salonID, appointmentID, phone string) (model.Appointment, error) {
	appt, err := tx.GetAppointmentForUpdate(ctx, salonID, appointmentID)
	if err != nil {
		return model.Appointment{}, err
	}
	client, err := tx.GetClient(ctx, salonID, appt.ClientID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Appointment{}, newError(CodeBookingNotFound, "appointment not found")
		}
		return model.Appointment{}, err
	}
	if NormalizePhone(client.Phone) != phone {
		return model.Appointment{}, newError(CodeBookingNotFound, "appointment not found")
	}
	return appt, nil
}

// commitError maps a failed transaction onto the public error codes.
func (c *Coordinator) commitError(ctx context.Context, op, salonID, appointmentID string, err error) error {
	var be *Error
	switch {
	case errors.As(err, &be):
		return be
	case errors.Is(err, storage.ErrConflict):
		return errSlotTaken
	case errors.Is(err, storage.ErrNotFound):
		return newError(CodeBookingNotFound, "appointment not found")
	default:
		return c.internal(ctx, op, salonID, appointmentID, err)
	}
}

func (c *Coordinator) internal(ctx context.Context, op, salonID, appointmentID string, err error) error {
	c.logger.ErrorContext(ctx, "booking operation failed",
		"op", op,
		"salon_id", salonID,
		"appointment_id", appointmentID,
		"err", err,
	)
	return internalError(err)
}

// dispatch publishes ev after commit. Failures are logged and never reach the
// caller; the booking stands either way.
func (c *Coordinator) dispatch(ctx context.Context, ev notify.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.notifyTimeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("dispatcher panic: %v", r)
			}
		}()
		return c.notifier.Dispatch(ctx, ev)
	}()
	c.metrics.Notification(string(ev.Type), err)
	if err != nil {
		c.logger.WarnContext(ctx, "notification failed",
			"event_type", string(ev.Type),
			"event_id", ev.ID,
			"appointment_id", ev.AppointmentID,
			"err", err,
		)
	}
}

func trimmed(s string) string { return strings.TrimSpace(s) }

func containsStaff(staff []model.Staff, id string) bool {
	for _, st := range staff {
		if st.ID == id {
			return true
		}
	}
	return false
}

func timeOffOnly(blocks []conflicts.Block) []conflicts.Block {
	out := blocks[:0:0]
	for _, b := range blocks {
		if b.Kind == conflicts.KindTimeOff {
			out = append(out, b)
		}
	}
	return out
}
