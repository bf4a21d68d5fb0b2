package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

var weekdayKeys = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func (s *Store) GetSalon(ctx context.Context, salonID string) (model.Salon, error) {
	if !validID(salonID) {
		return model.Salon{}, notFound("salon", salonID)
	}
	var salon model.Salon
	var hours []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, name, timezone, working_hours
		FROM salons
		WHERE id = $1
	`, salonID).Scan(&salon.ID, &salon.Name, &salon.Timezone, &hours)
	if err != nil {
		return model.Salon{}, classify(err)
	}
	if len(hours) > 0 && string(hours) != "null" {
		wh, err := decodeWorkingHours(hours)
		if err != nil {
			return model.Salon{}, fmt.Errorf("salon %s working hours: %w", salonID, err)
		}
		salon.WorkingHours = wh
	}
	return salon, nil
}

// decodeWorkingHours reads {"monday": "09:00-18:00", ...}. Unknown keys are ignored.
func decodeWorkingHours(raw []byte) (map[time.Weekday]string, error) {
	var byName map[string]string
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, err
	}
	out := make(map[time.Weekday]string, len(byName))
	for name, schedule := range byName {
		if day, ok := weekdayKeys[strings.ToLower(strings.TrimSpace(name))]; ok {
			out[day] = schedule
		}
	}
	return out, nil
}

// EncodeWorkingHours is the inverse of decodeWorkingHours, used when seeding salons.
func EncodeWorkingHours(wh map[time.Weekday]string) ([]byte, error) {
	if wh == nil {
		return nil, nil
	}
	byName := make(map[string]string, len(wh))
	for name, day := range weekdayKeys {
		if v, ok := wh[day]; ok {
			byName[name] = v
		}
	}
	return json.Marshal(byName)
}

func (s *Store) GetServices(ctx context.Context, salonID string, ids []string) ([]model.Service, error) {
	var valid []string
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 || !validID(salonID) {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, salon_id::text, name, duration_min, price_cents, active
		FROM services
		WHERE salon_id = $1 AND id = ANY($2::uuid[])
	`, salonID, valid)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.SalonID, &svc.Name, &svc.DurationMin, &svc.PriceCents, &svc.Active); err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (s *Store) GetStaff(ctx context.Context, salonID, staffID string) (model.Staff, error) {
	if !validID(salonID, staffID) {
		return model.Staff{}, notFound("staff", staffID)
	}
	var st model.Staff
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, salon_id::text, name, active, spoken_locales, created_at
		FROM staff
		WHERE salon_id = $1 AND id = $2
	`, salonID, staffID).Scan(&st.ID, &st.SalonID, &st.Name, &st.Active, &st.SpokenLocales, &st.CreatedAt)
	if err != nil {
		return model.Staff{}, classify(err)
	}
	return st, nil
}

func (s *Store) ListActiveStaff(ctx context.Context, salonID string) ([]model.Staff, error) {
	if !validID(salonID) {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, salon_id::text, name, active, spoken_locales, created_at
		FROM staff
		WHERE salon_id = $1 AND active
		ORDER BY created_at ASC, id ASC
	`, salonID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.Staff
	for rows.Next() {
		var st model.Staff
		if err := rows.Scan(&st.ID, &st.SalonID, &st.Name, &st.Active, &st.SpokenLocales, &st.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) ListTimeOff(ctx context.Context, salonID string, from, to time.Time, staffID string) ([]model.TimeOff, error) {
	if !validID(salonID) || (staffID != "" && !validID(staffID)) {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT o.id::text, o.staff_id::text, o.start_at, o.end_at, o.reason
		FROM staff_time_off o
		JOIN staff st ON st.id = o.staff_id
		WHERE st.salon_id = $1
			AND ($4::uuid IS NULL OR o.staff_id = $4::uuid)
			AND o.start_at < $3
			AND o.end_at > $2
		ORDER BY o.start_at ASC
	`, salonID, from, to, nullable(staffID))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.TimeOff
	for rows.Next() {
		var off model.TimeOff
		if err := rows.Scan(&off.ID, &off.StaffID, &off.StartAt, &off.EndAt, &off.Reason); err != nil {
			return nil, err
		}
		out = append(out, off)
	}
	return out, rows.Err()
}

func (s *Store) UpsertClient(ctx context.Context, c model.Client) (model.Client, error) {
	if !validID(c.SalonID) {
		return model.Client{}, notFound("salon", c.SalonID)
	}
	var out model.Client
	err := s.pool.QueryRow(ctx, `
		INSERT INTO clients (id, salon_id, phone, name, email, preferred_locale)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		ON CONFLICT (salon_id, phone) DO UPDATE
		SET name = EXCLUDED.name,
			email = COALESCE(NULLIF(EXCLUDED.email, ''), clients.email),
			preferred_locale = COALESCE(NULLIF(EXCLUDED.preferred_locale, ''), clients.preferred_locale),
			updated_at = now()
		RETURNING id::text, salon_id::text, phone, name, email, preferred_locale, created_at, updated_at
	`, c.SalonID, c.Phone, c.Name, c.Email, c.PreferredLocale).Scan(
		&out.ID, &out.SalonID, &out.Phone, &out.Name, &out.Email, &out.PreferredLocale, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return model.Client{}, classify(err)
	}
	return out, nil
}

func (s *Store) FindClientByPhone(ctx context.Context, salonID, phone string) (model.Client, error) {
	if !validID(salonID) {
		return model.Client{}, notFound("client", phone)
	}
	var c model.Client
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, salon_id::text, phone, name, email, preferred_locale, created_at, updated_at
		FROM clients
		WHERE salon_id = $1 AND phone = $2
	`, salonID, phone).Scan(&c.ID, &c.SalonID, &c.Phone, &c.Name, &c.Email, &c.PreferredLocale, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Client{}, classify(err)
	}
	return c, nil
}
