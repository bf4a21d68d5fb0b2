package notify

import (
	"context"
	"log/slog"
)

// LogDispatcher writes events to the service log. It is the fallback when no
// broker is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, ev Event) error {
	d.logger.InfoContext(ctx, "booking event",
		"event_id", ev.ID,
		"event_type", string(ev.Type),
		"salon_id", ev.SalonID,
		"appointment_id", ev.AppointmentID,
		"staff_id", ev.StaffID,
		"start_at", ev.StartAt,
	)
	return nil
}
