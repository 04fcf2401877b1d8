package domain

import "time"

// Method is a second factor channel.
type Method string

const (
	MethodTOTP  Method = "totp"
	MethodEmail Method = "email"
)

// MaxTicketAttempts bounds code guesses per login ticket.
const MaxTicketAttempts = 5

// LoginTicket is the pending login created by a correct password. The
// pending JWT carries its ID as sid.
type LoginTicket struct {
	ID         string // ULID
	UserID     string
	Method     Method
	CodeHash   string // fingerprint of the emailed code, empty for TOTP
	Attempts   int
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Open reports whether the ticket can still be verified at now.
func (t LoginTicket) Open(now time.Time) bool {
	return t.ConsumedAt == nil && now.Before(t.ExpiresAt) && t.Attempts < MaxTicketAttempts
}
