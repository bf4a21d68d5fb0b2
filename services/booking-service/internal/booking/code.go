package booking

import "github.com/md-rashed-zaman/salonbook/libs/redact"

// codeAlphabet omits 0/O and 1/I so codes survive being read over the phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 8

// ConfirmationCoder derives short human-facing codes from appointment ids
// with a keyed hash, so codes cannot be guessed from ids.
type ConfirmationCoder struct {
	hasher *redact.Redactor
}

func NewConfirmationCoder(hasher *redact.Redactor) *ConfirmationCoder {
	return &ConfirmationCoder{hasher: hasher}
}

func (c *ConfirmationCoder) Code(appointmentID string) string {
	sum := c.hasher.Sum("confirmation:" + appointmentID)
	out := make([]byte, codeLength)
	for i := range out {
		out[i] = codeAlphabet[int(sum[i])%len(codeAlphabet)]
	}
	return string(out)
}
