package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage/memory"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.New()
	store.PutSalon(model.Salon{ID: "s1", Timezone: "UTC", WorkingHours: map[time.Weekday]string{time.Monday: "09:00-18:00"}})
	store.PutService(model.Service{ID: "cut", SalonID: "s1", DurationMin: 45, PriceCents: 3000, Active: true})
	store.PutStaff(model.Staff{ID: "st1", SalonID: "s1", Name: "Ana", Active: true})

	now := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := booking.New(booking.Deps{Store: store, Logger: logger, Clock: func() time.Time { return now }, BufferMin: 15})

	r := chi.NewRouter()
	NewBookingHandler(coord, logger).Mount(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set(httpx.SalonIDHeader, "s1")
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestBookingFlowOverHTTP(t *testing.T) {
	srv := newServer(t)

	resp, body := do(t, srv, http.MethodPost, "/api/v1/public/bookings",
		`{"client_name":"Dana","client_phone":"+15550102030","service_ids":["cut"],"date":"2030-06-03","start_time":"10:00"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	var created createBookingResponse
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if created.AppointmentID == "" || created.Status != "PENDING" || created.Totals.DurationMin != 45 {
		t.Fatalf("unexpected create response %+v", created)
	}

	resp, body = do(t, srv, http.MethodPost, "/api/v1/public/bookings",
		`{"client_name":"Eve","client_phone":"+15550109999","service_ids":["cut"],"staff_id":"st1","date":"2030-06-03","start_time":"10:15"}`)
	if resp.StatusCode != http.StatusConflict || !strings.Contains(string(body), "TIME_CONFLICT") {
		t.Fatalf("expected 409 TIME_CONFLICT, got %d: %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/v1/public/slots?date=2030-06-03&service_ids=cut", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var slots []slotItem
	if err := json.Unmarshal(body, &slots); err != nil {
		t.Fatalf("decode slots: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.StartTime == "10:00" && s.Available {
			t.Fatal("10:00 should be unavailable")
		}
	}

	resp, body = do(t, srv, http.MethodPost, "/api/v1/appointments/"+created.AppointmentID+"/confirm", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"CONFIRMED"`) {
		t.Fatalf("confirm: %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodPost, "/api/v1/public/bookings/"+created.AppointmentID+"/reschedule",
		`{"phone":"+15550102030","new_date":"2030-06-03","new_start_time":"14:00"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reschedule: %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodPost, "/api/v1/public/bookings/"+created.AppointmentID+"/cancel",
		`{"phone":"+15550102030","reason":"travel"}`)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"CANCELED"`) {
		t.Fatalf("cancel: %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/v1/appointments?limit=5", "")
	var list []appointmentItem
	if err := json.Unmarshal(body, &list); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list: %d %s (%v)", resp.StatusCode, body, err)
	}
	if len(list) != 1 || list[0].Status != "CANCELED" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestValidationErrorShape(t *testing.T) {
	srv := newServer(t)
	resp, body := do(t, srv, http.MethodPost, "/api/v1/public/bookings", `{"service_ids":["cut"],"date":"2030-06-03","start_time":"10:00"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	fields := map[string]string{}
	for _, e := range er.Errors {
		fields[e.Field] = e.Code
	}
	if fields["client_name"] != "VALIDATION_ERROR" || fields["client_phone"] != "VALIDATION_ERROR" {
		t.Fatalf("expected field errors, got %+v", er.Errors)
	}
}

func TestRequestErrors(t *testing.T) {
	srv := newServer(t)
	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"bad json", http.MethodPost, "/api/v1/public/bookings", `{`, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/v1/appointments?limit=x", "", http.StatusBadRequest},
		{"unknown booking", http.MethodPost, "/api/v1/appointments/nope/confirm", "", http.StatusNotFound},
		{"unknown service", http.MethodGet, "/api/v1/public/slots?date=2030-06-03&service_ids=ghost", "", http.StatusNotFound},
		{"outside hours", http.MethodPost, "/api/v1/public/bookings",
			`{"client_name":"Dana","client_phone":"+15550102030","service_ids":["cut"],"date":"2030-06-03","start_time":"17:45"}`,
			http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, srv, tc.method, tc.path, tc.body)
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, resp.StatusCode, body)
			}
		})
	}
}

func TestMissingSalonHeader(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/api/v1/appointments")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	want := map[booking.Code]int{
		booking.CodeValidation:          400,
		booking.CodeServiceNotFound:     404,
		booking.CodeStaffNotFound:       404,
		booking.CodeBusinessHoursClosed: 422,
		booking.CodeTimeConflict:        409,
		booking.CodeBookingNotFound:     404,
		booking.CodeInvalidStatus:       409,
		booking.CodeInternal:            500,
	}
	for code, status := range want {
		if got := StatusFor(code); got != status {
			t.Fatalf("%s: expected %d, got %d", code, status, got)
		}
	}
}
