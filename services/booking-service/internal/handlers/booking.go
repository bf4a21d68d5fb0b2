package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

// BookingService is the subset of *booking.Coordinator the HTTP layer drives.
type BookingService interface {
	GetAvailableSlots(ctx context.Context, salonID string, req booking.SlotsRequest) ([]availability.Slot, error)
	CreateBooking(ctx context.Context, salonID string, req booking.CreateRequest) (booking.CreateResult, error)
	CancelBooking(ctx context.Context, salonID string, req booking.CancelRequest) (model.Appointment, error)
	RescheduleBooking(ctx context.Context, salonID string, req booking.RescheduleRequest) (model.Appointment, error)
	ConfirmBooking(ctx context.Context, salonID, appointmentID string) (model.Appointment, error)
	ListAppointments(ctx context.Context, salonID string, limit int) ([]model.Appointment, error)
}

type BookingHandler struct {
	svc    BookingService
	logger *slog.Logger
}

func NewBookingHandler(svc BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

// Mount registers the booking routes under /api/v1. public wraps only the
// unauthenticated client routes (rate limiting).
func (h *BookingHandler) Mount(r chi.Router, public ...func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requireSalon)
		r.Group(func(r chi.Router) {
			r.Use(public...)
			r.Get("/public/slots", h.Slots)
			r.Post("/public/bookings", h.Create)
			r.Post("/public/bookings/{id}/cancel", h.Cancel)
			r.Post("/public/bookings/{id}/reschedule", h.Reschedule)
		})
		r.Post("/appointments/{id}/confirm", h.Confirm)
		r.Get("/appointments", h.List)
	})
}

type errorItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Errors []errorItem `json:"errors"`
}

type slotItem struct {
	StartTime string `json:"start_time"`
	StartAt   string `json:"start_at"`
	StaffID   string `json:"staff_id,omitempty"`
	Available bool   `json:"available"`
}

type totalsItem struct {
	DurationMin int   `json:"duration_minutes"`
	PriceCents  int64 `json:"price_cents"`
}

type warningItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type createBookingResponse struct {
	AppointmentID    string        `json:"appointment_id"`
	Status           string        `json:"status"`
	ConfirmationCode string        `json:"confirmation_code"`
	ClientID         string        `json:"client_id"`
	StaffID          string        `json:"staff_id"`
	StartTime        string        `json:"start_time"`
	EndTime          string        `json:"end_time"`
	Totals           totalsItem    `json:"totals"`
	Warnings         []warningItem `json:"warnings"`
}

type appointmentItem struct {
	AppointmentID    string   `json:"appointment_id"`
	ClientID         string   `json:"client_id"`
	StaffID          string   `json:"staff_id"`
	ServiceIDs       []string `json:"service_ids"`
	StartTime        string   `json:"start_time"`
	EndTime          string   `json:"end_time"`
	Status           string   `json:"status"`
	Notes            string   `json:"notes,omitempty"`
	ConfirmationCode string   `json:"confirmation_code,omitempty"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

type appointmentResponse struct {
	Appointment appointmentItem `json:"appointment"`
}

type cancelBody struct {
	Phone  string `json:"phone"`
	Reason string `json:"reason"`
}

type rescheduleBody struct {
	Phone        string `json:"phone"`
	NewDate      string `json:"new_date"`
	NewStartTime string `json:"new_start_time"`
	NewStaffID   string `json:"new_staff_id"`
}

func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := booking.SlotsRequest{
		Date:       strings.TrimSpace(q.Get("date")),
		ServiceIDs: splitIDs(q["service_ids"]),
		StaffID:    strings.TrimSpace(q.Get("staff_id")),
	}
	slots, err := h.svc.GetAvailableSlots(r.Context(), httpx.SalonIDFromRequest(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotItem{
			StartTime: s.StartTime.Format("15:04"),
			StartAt:   s.StartTime.Format(time.RFC3339),
			StaffID:   s.StaffID,
			Available: s.Available,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req booking.CreateRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.CreateBooking(r.Context(), httpx.SalonIDFromRequest(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	warnings := make([]warningItem, 0, len(res.Warnings))
	for _, wn := range res.Warnings {
		warnings = append(warnings, warningItem{Code: wn.Code, Message: wn.Message})
	}
	writeJSON(w, http.StatusCreated, createBookingResponse{
		AppointmentID:    res.Appointment.ID,
		Status:           string(res.Appointment.Status),
		ConfirmationCode: res.ConfirmationCode,
		ClientID:         res.ClientID,
		StaffID:          res.Appointment.StaffID,
		StartTime:        res.Appointment.StartAt.Format(time.RFC3339),
		EndTime:          res.Appointment.EndAt.Format(time.RFC3339),
		Totals:           totalsItem{DurationMin: res.Totals.DurationMin, PriceCents: res.Totals.PriceCents},
		Warnings:         warnings,
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var body cancelBody
	if !h.decode(w, r, &body) {
		return
	}
	appt, err := h.svc.CancelBooking(r.Context(), httpx.SalonIDFromRequest(r), booking.CancelRequest{
		AppointmentID: chi.URLParam(r, "id"),
		Phone:         body.Phone,
		Reason:        body.Reason,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentResponse{Appointment: toItem(appt)})
}

func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var body rescheduleBody
	if !h.decode(w, r, &body) {
		return
	}
	appt, err := h.svc.RescheduleBooking(r.Context(), httpx.SalonIDFromRequest(r), booking.RescheduleRequest{
		AppointmentID: chi.URLParam(r, "id"),
		Phone:         body.Phone,
		NewDate:       body.NewDate,
		NewStartTime:  body.NewStartTime,
		NewStaffID:    body.NewStaffID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentResponse{Appointment: toItem(appt)})
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	appt, err := h.svc.ConfirmBooking(r.Context(), httpx.SalonIDFromRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentResponse{Appointment: toItem(appt)})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Errors: []errorItem{{
				Code: string(booking.CodeValidation), Message: "must be a non-negative integer", Field: "limit",
			}}})
			return
		}
		limit = n
	}
	appts, err := h.svc.ListAppointments(r.Context(), httpx.SalonIDFromRequest(r), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		out = append(out, toItem(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BookingHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Errors: []errorItem{{
			Code: string(booking.CodeValidation), Message: "invalid json body", Field: "body",
		}}})
		return false
	}
	return true
}

func (h *BookingHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var be *booking.Error
	if !errors.As(err, &be) {
		h.logger.ErrorContext(r.Context(), "untyped booking error",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"err", err,
		)
		be = &booking.Error{Code: booking.CodeInternal, Message: "internal error"}
	}
	resp := errorResponse{}
	if len(be.Fields) == 0 {
		resp.Errors = []errorItem{{Code: string(be.Code), Message: be.Message}}
	}
	for _, f := range be.Fields {
		resp.Errors = append(resp.Errors, errorItem{Code: string(be.Code), Message: f.Message, Field: f.Field})
	}
	writeJSON(w, StatusFor(be.Code), resp)
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code booking.Code) int {
	switch code {
	case booking.CodeValidation:
		return http.StatusBadRequest
	case booking.CodeServiceNotFound, booking.CodeStaffNotFound, booking.CodeBookingNotFound:
		return http.StatusNotFound
	case booking.CodeBusinessHoursClosed:
		return http.StatusUnprocessableEntity
	case booking.CodeTimeConflict, booking.CodeInvalidStatus:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func requireSalon(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpx.SalonIDFromRequest(r) == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Errors: []errorItem{{
				Code: string(booking.CodeValidation), Message: httpx.SalonIDHeader + " header is required", Field: "salon_id",
			}}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// splitIDs accepts both ?service_ids=a,b and repeated ?service_ids=a&service_ids=b.
func splitIDs(values []string) []string {
	var out []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

func toItem(a model.Appointment) appointmentItem {
	return appointmentItem{
		AppointmentID:    a.ID,
		ClientID:         a.ClientID,
		StaffID:          a.StaffID,
		ServiceIDs:       a.ServiceIDs,
		StartTime:        a.StartAt.Format(time.RFC3339),
		EndTime:          a.EndAt.Format(time.RFC3339),
		Status:           string(a.Status),
		Notes:            a.Notes,
		ConfirmationCode: a.ConfirmationCode,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        a.UpdatedAt.Format(time.RFC3339),
	}
}
