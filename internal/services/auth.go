package services

import (
	"context"
	"time"

	"github.com/or73/Async-API-Pizza-Delivery/internal/apperr"
	"github.com/or73/Async-API-Pizza-Delivery/internal/models"
	"github.com/or73/Async-API-Pizza-Delivery/internal/repositories"
)

// Clock returns the current time.
type Clock func() time.Time

// Credentials are the identity a caller presents: the email and token
// request headers.
type Credentials struct {
	Email string
	Token string
}

// Authenticator decides whether a token proves a claimed email.
type Authenticator struct {
	tokens *repositories.RecordStore
	now    Clock
}

// NewAuthenticator creates an Authenticator reading the tokens collection
// of db. A nil clock means time.Now.
func NewAuthenticator(db *repositories.DB, now Clock) *Authenticator {
	if now == nil {
		now = time.Now
	}
	return &Authenticator{
		tokens: db.Store(repositories.Tokens),
		now:    now,
	}
}

// Validate returns the stored token when tokenID is a live token issued to
// email. The checks run in a fixed order: shape (InvalidArgument), presence
// (NotFound), expiry (Expired), then identity (Unauthorized), so an expired
// token is reported as expired even when it belongs to someone else.
func (a *Authenticator) Validate(ctx context.Context, tokenID, email string) (models.Token, error) {
	const op = "auth.validate"

	if !validTokenID(tokenID) || !validEmail(email) {
		return models.Token{}, apperr.E(apperr.InvalidArgument, op, "required fields missing or they were invalid")
	}

	var token models.Token
	if err := a.tokens.Read(ctx, tokenID, &token); err != nil {
		return models.Token{}, apperr.Annotate(err, op)
	}
	if token.Expired(a.now()) {
		return models.Token{}, apperr.E(apperr.Expired, op, "token expired")
	}
	if token.Email != email || token.TokenID != tokenID {
		return models.Token{}, apperr.E(apperr.Unauthorized, op, "user or token have invalid values")
	}
	return token, nil
}
