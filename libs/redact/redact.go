// Package redact produces stable, non-reversible fingerprints of personal
// data (phone numbers, emails) for logs and derived public codes.
package redact

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

type Redactor struct {
	key []byte
}

// New returns a Redactor keyed with secret. An empty secret still yields
// stable fingerprints, only unkeyed.
func New(secret string) *Redactor {
	key := []byte(secret)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &Redactor{key: key}
}

// Sum returns the keyed BLAKE2b-256 digest of value.
func (r *Redactor) Sum(value string) []byte {
	h, err := blake2b.New256(r.key)
	if err != nil {
		// Only possible for keys longer than 64 bytes, which New prevents.
		panic(err)
	}
	_, _ = h.Write([]byte(value))
	return h.Sum(nil)
}

// Phone keeps the last two digits and replaces the rest with a short
// fingerprint, e.g. "ph_3fa91c0b**42".
func (r *Redactor) Phone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	tail := phone
	if len(tail) > 2 {
		tail = tail[len(tail)-2:]
	}
	return "ph_" + hex.EncodeToString(r.Sum(phone)[:4]) + "**" + tail
}

// Email keeps the domain and fingerprints the local part.
func (r *Redactor) Email(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return "em_" + hex.EncodeToString(r.Sum(email)[:4])
	}
	return "em_" + hex.EncodeToString(r.Sum(email[:at])[:4]) + email[at:]
}
