package booking

import (
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/staffing"
)

type CreateRequest struct {
	ClientName   string   `json:"client_name" validate:"required,max=120"`
	ClientPhone  string   `json:"client_phone" validate:"required,phone"`
	ClientEmail  string   `json:"client_email" validate:"omitempty,email,max=254"`
	ClientLocale string   `json:"client_locale" validate:"omitempty,bcp47_language_tag"`
	ServiceIDs   []string `json:"service_ids" validate:"required,min=1,max=10,dive,required"`
	StaffID      string   `json:"staff_id"`
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string   `json:"start_time" validate:"required,datetime=15:04"`
	Notes        string   `json:"notes" validate:"max=1000"`
}

func (r CreateRequest) normalized() CreateRequest {
	r.ClientName = strings.TrimSpace(r.ClientName)
	r.ClientPhone = NormalizePhone(r.ClientPhone)
	r.ClientEmail = strings.ToLower(strings.TrimSpace(r.ClientEmail))
	r.ClientLocale = strings.TrimSpace(r.ClientLocale)
	r.ServiceIDs = dedupe(r.ServiceIDs)
	r.StaffID = strings.TrimSpace(r.StaffID)
	r.Date = strings.TrimSpace(r.Date)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.Notes = strings.TrimSpace(r.Notes)
	return r
}

type Totals struct {
	DurationMin int
	PriceCents  int64
}

type CreateResult struct {
	Appointment      model.Appointment
	ClientID         string
	ConfirmationCode string
	Totals           Totals
	Warnings         []staffing.Warning
}

type CancelRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required"`
	Phone         string `json:"phone" validate:"required,phone"`
	Reason        string `json:"reason" validate:"max=500"`
}

type RescheduleRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required"`
	Phone         string `json:"phone" validate:"required,phone"`
	NewDate       string `json:"new_date" validate:"required,datetime=2006-01-02"`
	NewStartTime  string `json:"new_start_time" validate:"required,datetime=15:04"`
	NewStaffID    string `json:"new_staff_id"`
}

type SlotsRequest struct {
	Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
	ServiceIDs []string `json:"service_ids" validate:"required,min=1,max=10,dive,required"`
	StaffID    string   `json:"staff_id"`
}

// dedupe trims ids and drops repeats, keeping first-seen order. Empty ids are
// kept so validation reports them.
func dedupe(ids []string) []string {
	if ids == nil {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// appendNote adds line to notes on its own line.
func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}

// dayAndStart resolves a local date and HH:MM clock into the day's midnight
// and the start instant, both in loc.
func dayAndStart(date, clock string, loc *time.Location, dateField, clockField string) (time.Time, time.Time, *Error) {
	day, err := model.ParseDate(date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fieldError(dateField, "must be a date in YYYY-MM-DD format")
	}
	minute, err := model.ParseClock(clock)
	if err != nil {
		return time.Time{}, time.Time{}, fieldError(clockField, "must be a time in HH:MM format")
	}
	return day, model.At(day, minute), nil
}
