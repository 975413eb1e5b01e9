package models

import (
	"fmt"
	"time"
)

// TokenIDLength is the length of every issued token id.
const TokenIDLength = 20

// Token is a session credential bound to one email.
type Token struct {
	TokenID string `json:"tokenId"`
	Email   string `json:"email"`
	Expires int64  `json:"expires"` // epoch milliseconds
}

// ExpiresAt returns Expires as a time.Time.
func (t Token) ExpiresAt() time.Time {
	return time.UnixMilli(t.Expires)
}

// Expired reports whether the token is no longer valid at now.
func (t Token) Expired(now time.Time) bool {
	return now.UnixMilli() >= t.Expires
}

// TokenView is the token as returned to clients, with a human-readable
// expiry alongside the raw timestamp.
type TokenView struct {
	TokenID   string `json:"tokenId,omitempty"`
	Email     string `json:"email"`
	Expires   int64  `json:"expires"`
	ExpiresAt string `json:"expiresAt"`
}

// View renders t for clients.
func (t Token) View() TokenView {
	return TokenView{
		TokenID:   t.TokenID,
		Email:     t.Email,
		Expires:   t.Expires,
		ExpiresAt: FormatDate(t.ExpiresAt()),
	}
}

// FormatDate renders ts as "YYYY/M/D  H:M:S" in local time.
func FormatDate(ts time.Time) string {
	return fmt.Sprintf("%d/%d/%d  %d:%d:%d",
		ts.Year(), int(ts.Month()), ts.Day(), ts.Hour(), ts.Minute(), ts.Second())
}
