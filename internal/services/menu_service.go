package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/or73/Async-API-Pizza-Delivery/internal/apperr"
	"github.com/or73/Async-API-Pizza-Delivery/internal/models"
	"github.com/or73/Async-API-Pizza-Delivery/internal/repositories"
)

// MenuItemInput is the body of a menu item create request.
type MenuItemInput struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gt=0"`
}

// MenuUpdateInput is the body of a menu item update request. Only the price
// can change.
type MenuUpdateInput struct {
	Name  string  `json:"name"`
	Price float64 `json:"price" validate:"gt=0"`
}

// MenuService handles business logic related to menu items.
type MenuService struct {
	menus *repositories.RecordStore
	auth  *Authenticator
}

// NewMenuService creates a new MenuService.
func NewMenuService(db *repositories.DB, auth *Authenticator) *MenuService {
	return &MenuService{
		menus: db.Store(repositories.Menus),
		auth:  auth,
	}
}

// Create adds a new item to the menu.
func (s *MenuService) Create(ctx context.Context, in MenuItemInput) (models.MenuItem, error) {
	const op = "menus.create"

	if err := checkInput(op, in); err != nil {
		return models.MenuItem{}, err
	}
	item := models.MenuItem{
		ID:    uuid.NewString(),
		Name:  in.Name,
		Price: in.Price,
	}
	if err := s.menus.Create(ctx, item.Name, item); err != nil {
		return models.MenuItem{}, apperr.Annotate(err, op)
	}
	return item, nil
}

// Get returns the menu item called name.
func (s *MenuService) Get(ctx context.Context, name string) (models.MenuItem, error) {
	const op = "menus.get"

	if name == "" {
		return models.MenuItem{}, apperr.E(apperr.InvalidArgument, op, "missing or invalid required fields (item name)")
	}
	var item models.MenuItem
	if err := s.menus.Read(ctx, name, &item); err != nil {
		return models.MenuItem{}, apperr.Annotate(err, op)
	}
	return item, nil
}

// List returns the name and price of every menu item.
func (s *MenuService) List(ctx context.Context) ([]models.MenuEntry, error) {
	const op = "menus.list"

	names, err := s.menus.ListKeys(ctx)
	if err != nil {
		return nil, apperr.Annotate(err, op)
	}
	entries := make([]models.MenuEntry, 0, len(names))
	for _, name := range names {
		var item models.MenuItem
		if err := s.menus.Read(ctx, name, &item); err != nil {
			if apperr.Is(err, apperr.NotFound) {
				continue
			}
			return nil, apperr.Annotate(err, op)
		}
		entries = append(entries, models.MenuEntry{Name: item.Name, Price: item.Price})
	}
	return entries, nil
}

// Update changes the price of the menu item called name.
func (s *MenuService) Update(ctx context.Context, cred Credentials, name string, in MenuUpdateInput) (models.MenuItem, error) {
	const op = "menus.update"

	if in.Name != "" {
		return models.MenuItem{}, apperr.E(apperr.NotPermitted, op, "name cannot be updated")
	}
	if name == "" {
		return models.MenuItem{}, apperr.E(apperr.InvalidArgument, op, "missing or invalid required fields (name)")
	}
	if err := checkInput(op, in); err != nil {
		return models.MenuItem{}, err
	}
	if _, err := s.auth.Validate(ctx, cred.Token, cred.Email); err != nil {
		return models.MenuItem{}, apperr.Annotate(err, op)
	}

	item, err := repositories.Modify(ctx, s.menus, name, func(m *models.MenuItem) error {
		m.Name = name
		m.Price = in.Price
		return nil
	})
	if err != nil {
		return models.MenuItem{}, apperr.Annotate(err, op)
	}
	return item, nil
}

// Delete removes the menu item called name.
func (s *MenuService) Delete(ctx context.Context, cred Credentials, name string) error {
	const op = "menus.delete"

	if name == "" {
		return apperr.E(apperr.InvalidArgument, op, "missing or invalid required fields (item name)")
	}
	if _, err := s.auth.Validate(ctx, cred.Token, cred.Email); err != nil {
		return apperr.Annotate(err, op)
	}
	return apperr.Annotate(s.menus.Delete(ctx, name), op)
}
