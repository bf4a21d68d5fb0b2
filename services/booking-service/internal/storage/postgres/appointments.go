package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
)

const appointmentColumns = `
	a.id::text, a.salon_id::text, a.client_id::text, COALESCE(a.staff_id::text, ''),
	a.start_at, a.end_at, a.status, a.notes, a.confirmation_code, a.created_at, a.updated_at,
	COALESCE((SELECT array_agg(l.service_id::text ORDER BY l.service_id)
		FROM appointment_services l WHERE l.appointment_id = a.id), '{}')`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	err := row.Scan(
		&appt.ID,
		&appt.SalonID,
		&appt.ClientID,
		&appt.StaffID,
		&appt.StartAt,
		&appt.EndAt,
		&status,
		&appt.Notes,
		&appt.ConfirmationCode,
		&appt.CreatedAt,
		&appt.UpdatedAt,
		&appt.ServiceIDs,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	if appt.Status, err = parseStatus(status); err != nil {
		return model.Appointment{}, fmt.Errorf("appointment %s: %w", appt.ID, err)
	}
	return appt, nil
}

func parseStatus(s string) (model.Status, error) {
	st := model.Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (s *Store) ListBlockingAppointments(ctx context.Context, salonID string, from, to time.Time, staffID string) ([]model.Appointment, error) {
	if !validID(salonID) || (staffID != "" && !validID(staffID)) {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.salon_id = $1
			AND ($4::uuid IS NULL OR a.staff_id = $4::uuid)
			AND a.status IN ('PENDING', 'CONFIRMED')
			AND a.start_at < $3
			AND a.end_at > $2
		ORDER BY a.start_at ASC, a.id ASC
	`, salonID, from, to, nullable(staffID))
	if err != nil {
		return nil, classify(err)
	}
	return collectAppointments(rows)
}

func (s *Store) ListAppointments(ctx context.Context, salonID string, limit int) ([]model.Appointment, error) {
	if !validID(salonID) {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.salon_id = $1
		ORDER BY a.start_at DESC, a.id ASC
		LIMIT $2
	`, salonID, storage.ClampLimit(limit))
	if err != nil {
		return nil, classify(err)
	}
	return collectAppointments(rows)
}

func (s *Store) CompleteElapsed(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'COMPLETED', updated_at = now()
		WHERE status = 'CONFIRMED' AND end_at <= $1
	`, cutoff)
	if err != nil {
		return 0, classify(err)
	}
	return int(tag.RowsAffected()), nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) HasConflict(ctx context.Context, staffID string, start, end time.Time, excludeID string) (bool, error) {
	if !validID(staffID) {
		return false, nil
	}
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE staff_id = $1
				AND status IN ('PENDING', 'CONFIRMED')
				AND start_at < $3
				AND end_at > $2
				AND ($4::uuid IS NULL OR id <> $4::uuid)
		)
	`, staffID, start, end, nullable(excludeID)).Scan(&exists)
	return exists, err
}

func (t *pgTx) InsertAppointment(ctx context.Context, appt model.Appointment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO appointments
			(id, salon_id, client_id, staff_id, start_at, end_at, status, notes, confirmation_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, appt.ID, appt.SalonID, appt.ClientID, nullable(appt.StaffID), appt.StartAt, appt.EndAt,
		string(appt.Status), appt.Notes, appt.ConfirmationCode, appt.CreatedAt)
	if err != nil {
		return err
	}
	for _, serviceID := range appt.ServiceIDs {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO appointment_services (appointment_id, service_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, appt.ID, serviceID); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) GetAppointmentForUpdate(ctx context.Context, salonID, appointmentID string) (model.Appointment, error) {
	if !validID(salonID, appointmentID) {
		return model.Appointment{}, notFound("appointment", appointmentID)
	}
	appt, err := scanAppointment(t.tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.id = $1 AND a.salon_id = $2
		FOR UPDATE
	`, appointmentID, salonID))
	if err != nil {
		return model.Appointment{}, classify(err)
	}
	return appt, nil
}

func (t *pgTx) GetClient(ctx context.Context, salonID, clientID string) (model.Client, error) {
	if !validID(salonID, clientID) {
		return model.Client{}, notFound("client", clientID)
	}
	var c model.Client
	err := t.tx.QueryRow(ctx, `
		SELECT id::text, salon_id::text, phone, name, email, preferred_locale, created_at, updated_at
		FROM clients
		WHERE id = $1 AND salon_id = $2
	`, clientID, salonID).Scan(&c.ID, &c.SalonID, &c.Phone, &c.Name, &c.Email, &c.PreferredLocale, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Client{}, classify(err)
	}
	return c, nil
}

func (t *pgTx) ServiceMinutes(ctx context.Context, appointmentID string) (int, error) {
	var total int
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(s.duration_min), 0)
		FROM appointment_services l
		JOIN services s ON s.id = l.service_id
		WHERE l.appointment_id = $1
	`, appointmentID).Scan(&total)
	return total, err
}

func (t *pgTx) UpdateStatus(ctx context.Context, salonID, appointmentID string, status model.Status, notes string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE appointments
		SET status = $3, notes = $4, updated_at = $5
		WHERE id = $1 AND salon_id = $2
	`, appointmentID, salonID, string(status), notes, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("appointment", appointmentID)
	}
	return nil
}

func (t *pgTx) UpdateSchedule(ctx context.Context, salonID, appointmentID, staffID string, start, end, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE appointments
		SET staff_id = $3, start_at = $4, end_at = $5, updated_at = $6
		WHERE id = $1 AND salon_id = $2
	`, appointmentID, salonID, staffID, start, end, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("appointment", appointmentID)
	}
	return nil
}
