package services

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/or73/Async-API-Pizza-Delivery/internal/models"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newTokenID returns a random lowercase alphanumeric token id.
func newTokenID() (string, error) {
	limit := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, models.TokenIDLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate token id: %w", err)
		}
		b[i] = tokenAlphabet[n.Int64()]
	}
	return string(b), nil
}
