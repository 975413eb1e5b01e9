// Package payments captures the amount of a purchase order.
package payments

import (
	"context"
	"errors"
	"time"
)

// ErrDeclined is returned when the processor refuses the charge.
var ErrDeclined = errors.New("payment declined")

// CaptureRequest describes one charge. Amount is in the smallest currency
// unit (cents).
type CaptureRequest struct {
	Email       string
	Amount      int64
	Currency    string
	Description string
}

// Authorization is the processor's record of a successful capture.
type Authorization struct {
	ID       string
	Object   string
	Approved bool
	Brand    string
	Last4    string
	Country  string
	Created  time.Time
}

// Gateway is the payment-capture collaborator.
type Gateway interface {
	Capture(ctx context.Context, req CaptureRequest) (*Authorization, error)
}

// ToCents converts a decimal amount to cents, rounding half away from zero.
func ToCents(amount float64) int64 {
	if amount < 0 {
		return -int64(-amount*100 + 0.5)
	}
	return int64(amount*100 + 0.5)
}
