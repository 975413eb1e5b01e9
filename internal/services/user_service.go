package services

import (
	"context"
	"log/slog"

	"github.com/or73/Async-API-Pizza-Delivery/internal/apperr"
	"github.com/or73/Async-API-Pizza-Delivery/internal/models"
	"github.com/or73/Async-API-Pizza-Delivery/internal/repositories"
)

// CreateUserInput is the body of a user create request.
type CreateUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Address  string `json:"address" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserInput is the body of a user update request. Empty fields are
// left unchanged. Email cannot be changed.
type UpdateUserInput struct {
	Email    string `json:"email"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// CreatedUser is the outcome of a user create. Token is nil when the user
// was stored but no token could be issued.
type CreatedUser struct {
	User  models.User
	Token *models.Token
}

// UserService handles business logic for users.
type UserService struct {
	users  *repositories.RecordStore
	tokens *repositories.RecordStore
	carts  *repositories.RecordStore
	auth   *Authenticator
	issuer *TokenService
	hasher *PasswordHasher
}

// NewUserService creates a new UserService.
func NewUserService(db *repositories.DB, auth *Authenticator, issuer *TokenService, hasher *PasswordHasher) *UserService {
	return &UserService{
		users:  db.Store(repositories.Users),
		tokens: db.Store(repositories.Tokens),
		carts:  db.Store(repositories.ShoppingCarts),
		auth:   auth,
		issuer: issuer,
		hasher: hasher,
	}
}

// Create registers a new user and logs them in. Failing to issue the token
// does not undo the registration.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (CreatedUser, error) {
	const op = "users.create"

	if err := checkInput(op, in); err != nil {
		return CreatedUser{}, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return CreatedUser{}, apperr.Wrap(apperr.Internal, op, "user was not created", err)
	}

	user := models.User{
		Email:          in.Email,
		Address:        in.Address,
		Name:           in.Name,
		Password:       hashed,
		ShoppingCartID: false,
		OrdersBackup:   []string{},
	}
	if err := s.users.Create(ctx, user.Email, user); err != nil {
		return CreatedUser{}, apperr.Annotate(err, op)
	}

	result := CreatedUser{User: user.Public()}
	token, err := s.issuer.Issue(ctx, user.Email)
	if err != nil {
		slog.WarnContext(ctx, "user created without token", "email", user.Email, "error", err)
		return result, nil
	}
	result.Token = &token
	return result, nil
}

// Get returns the user stored under email, without its password.
func (s *UserService) Get(ctx context.Context, tokenID, email string) (models.User, error) {
	const op = "users.get"

	if _, err := s.auth.Validate(ctx, tokenID, email); err != nil {
		return models.User{}, apperr.Annotate(err, op)
	}
	var user models.User
	if err := s.users.Read(ctx, email, &user); err != nil {
		return models.User{}, apperr.Annotate(err, op)
	}
	return user.Public(), nil
}

// List returns every user with the sensitive fields removed.
func (s *UserService) List(ctx context.Context, cred Credentials) ([]map[string]any, error) {
	const op = "users.list"

	if _, err := s.auth.Validate(ctx, cred.Token, cred.Email); err != nil {
		return nil, apperr.Annotate(err, op)
	}
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, apperr.Annotate(err, op)
	}
	return users, nil
}

// Update changes the name, address or password of the user stored under
// email. It fails with NotFound when nothing would change.
func (s *UserService) Update(ctx context.Context, tokenID, email string, in UpdateUserInput) (models.User, error) {
	const op = "users.update"

	if in.Email != "" {
		return models.User{}, apperr.E(apperr.NotPermitted, op, "email cannot be updated")
	}
	if in.Address == "" && in.Name == "" && in.Password == "" {
		return models.User{}, apperr.E(apperr.InvalidArgument, op, "missing or invalid required fields")
	}
	if _, err := s.auth.Validate(ctx, tokenID, email); err != nil {
		return models.User{}, apperr.Annotate(err, op)
	}

	var hashed string
	if in.Password != "" {
		var err error
		if hashed, err = s.hasher.Hash(in.Password); err != nil {
			return models.User{}, apperr.Wrap(apperr.Internal, op, "user was not updated", err)
		}
	}

	user, err := repositories.Modify(ctx, s.users, email, func(u *models.User) error {
		changed := false
		if in.Name != "" && in.Name != u.Name {
			u.Name = in.Name
			changed = true
		}
		if in.Address != "" && in.Address != u.Address {
			u.Address = in.Address
			changed = true
		}
		if in.Password != "" && !s.hasher.Matches(u.Password, in.Password) {
			u.Password = hashed
			changed = true
		}
		if !changed {
			return apperr.Errorf(apperr.NotFound, op, "%s user data was not updated, no new information was sent", email)
		}
		return nil
	})
	if err != nil {
		return models.User{}, apperr.Annotate(err, op)
	}
	return user.Public(), nil
}

// Delete removes the user stored under email together with its token and
// shopping cart.
//
// The steps run in order (token, cart, user) and stop at the first
// failure; earlier deletions are not rolled back. A caller retrying after a
// partial failure logs in again first. A missing cart is tolerated only for
// users without a cart reference.
func (s *UserService) Delete(ctx context.Context, tokenID, email string) error {
	const op = "users.delete"

	if _, err := s.auth.Validate(ctx, tokenID, email); err != nil {
		return apperr.Annotate(err, op)
	}

	var token models.Token
	if err := s.tokens.Read(ctx, tokenID, &token); err != nil {
		return apperr.Annotate(err, op)
	}
	var user models.User
	if err := s.users.Read(ctx, email, &user); err != nil {
		return apperr.Annotate(err, op)
	}

	if err := s.tokens.Delete(ctx, tokenID); err != nil && !apperr.Is(err, apperr.NotFound) {
		return apperr.Annotate(err, op)
	}

	if err := s.carts.Delete(ctx, email); err != nil {
		if !apperr.Is(err, apperr.NotFound) || user.ShoppingCartID {
			slog.ErrorContext(ctx, "user delete stopped after token removal", "email", email, "error", err)
			return apperr.Annotate(err, op)
		}
	}

	if err := s.users.Delete(ctx, email); err != nil {
		slog.ErrorContext(ctx, "user delete stopped after cart removal", "email", email, "error", err)
		return apperr.Annotate(err, op)
	}
	return nil
}
