package httpx

import (
	"net/http"
	"strings"
)

// SalonIDHeader carries the tenant id resolved upstream (gateway or edge).
const SalonIDHeader = "X-Salon-Id"

func SalonIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(SalonIDHeader))
}
