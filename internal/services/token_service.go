package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/or73/Async-API-Pizza-Delivery/internal/apperr"
	"github.com/or73/Async-API-Pizza-Delivery/internal/models"
	"github.com/or73/Async-API-Pizza-Delivery/internal/repositories"
)

// LoginInput is the body of a token create request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenService issues, refreshes and revokes session tokens.
type TokenService struct {
	tokens *repositories.RecordStore
	users  *repositories.RecordStore
	hasher *PasswordHasher
	ttl    time.Duration
	now    Clock
}

// NewTokenService creates a TokenService issuing tokens valid for ttl.
func NewTokenService(db *repositories.DB, hasher *PasswordHasher, ttl time.Duration, now Clock) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{
		tokens: db.Store(repositories.Tokens),
		users:  db.Store(repositories.Users),
		hasher: hasher,
		ttl:    ttl,
		now:    now,
	}
}

// Issue creates and stores a fresh token for email.
func (s *TokenService) Issue(ctx context.Context, email string) (models.Token, error) {
	const op = "tokens.issue"

	var lastErr error
	// retry on an id collision
	for attempt := 0; attempt < 3; attempt++ {
		id, err := newTokenID()
		if err != nil {
			return models.Token{}, apperr.Wrap(apperr.Internal, op, "token was not created", err)
		}
		token := models.Token{
			TokenID: id,
			Email:   email,
			Expires: s.now().Add(s.ttl).UnixMilli(),
		}
		lastErr = s.tokens.Create(ctx, id, token)
		if lastErr == nil {
			return token, nil
		}
		if !apperr.Is(lastErr, apperr.AlreadyExists) {
			break
		}
	}
	return models.Token{}, apperr.Annotate(lastErr, op)
}

// Login checks the credentials in in and issues a token. A wrong password
// and an unknown email fail identically.
func (s *TokenService) Login(ctx context.Context, in LoginInput) (models.Token, error) {
	const op = "tokens.login"

	if err := checkInput(op, in); err != nil {
		return models.Token{}, err
	}

	var user models.User
	if err := s.users.Read(ctx, in.Email, &user); err != nil {
		if !apperr.Is(err, apperr.NotFound) {
			return models.Token{}, apperr.Annotate(err, op)
		}
		slog.InfoContext(ctx, "login for unknown user", "email", in.Email)
		return models.Token{}, apperr.E(apperr.InvalidArgument, op, "email or password is wrong")
	}
	if user.Email != in.Email || !s.hasher.Matches(user.Password, in.Password) {
		return models.Token{}, apperr.E(apperr.InvalidArgument, op, "email or password is wrong")
	}

	return s.Issue(ctx, user.Email)
}

// Get returns the token stored under id.
func (s *TokenService) Get(ctx context.Context, id string) (models.Token, error) {
	const op = "tokens.get"

	if !validTokenID(id) {
		return models.Token{}, apperr.E(apperr.InvalidArgument, op, "missing or invalid required fields")
	}
	var token models.Token
	if err := s.tokens.Read(ctx, id, &token); err != nil {
		return models.Token{}, apperr.Annotate(err, op)
	}
	return token, nil
}

// List returns every stored token without its id.
func (s *TokenService) List(ctx context.Context) ([]models.TokenView, error) {
	const op = "tokens.list"

	ids, err := s.tokens.ListKeys(ctx)
	if err != nil {
		return nil, apperr.Annotate(err, op)
	}

	views := make([]models.TokenView, 0, len(ids))
	for _, id := range ids {
		var token models.Token
		if err := s.tokens.Read(ctx, id, &token); err != nil {
			if apperr.Is(err, apperr.NotFound) {
				continue
			}
			return nil, apperr.Annotate(err, op)
		}
		view := token.View()
		view.TokenID = ""
		views = append(views, view)
	}
	return views, nil
}

// Refresh extends the token stored under id to expire one TTL from now,
// keeping its id and email. The new expiry is always later than the old.
func (s *TokenService) Refresh(ctx context.Context, id string) (models.Token, error) {
	const op = "tokens.refresh"

	if !validTokenID(id) {
		return models.Token{}, apperr.E(apperr.Unauthorized, op, "invalid token id")
	}

	token, err := repositories.Modify(ctx, s.tokens, id, func(t *models.Token) error {
		expires := s.now().Add(s.ttl).UnixMilli()
		if expires <= t.Expires {
			expires = t.Expires + 1
		}
		t.Expires = expires
		return nil
	})
	if err != nil {
		return models.Token{}, apperr.Annotate(err, op)
	}
	return token, nil
}

// Delete revokes the token stored under id.
func (s *TokenService) Delete(ctx context.Context, id string) error {
	const op = "tokens.delete"

	if !validTokenID(id) {
		return apperr.E(apperr.InvalidArgument, op, "missing or invalid required fields")
	}
	return apperr.Annotate(s.tokens.Delete(ctx, id), op)
}
