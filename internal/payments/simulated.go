package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SimulatedGateway approves every positive charge with a test card. It is
// the default for development.
type SimulatedGateway struct {
	Brand   string
	Last4   string
	Country string
}

// NewSimulatedGateway returns a gateway that pays with a test Visa card.
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{Brand: "Visa", Last4: "4242", Country: "US"}
}

func (g *SimulatedGateway) Capture(_ context.Context, req CaptureRequest) (*Authorization, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", ErrDeclined, req.Amount)
	}
	return &Authorization{
		ID:       "ch_" + uuid.NewString(),
		Object:   "charge",
		Approved: true,
		Brand:    g.Brand,
		Last4:    g.Last4,
		Country:  g.Country,
		Created:  time.Now(),
	}, nil
}
