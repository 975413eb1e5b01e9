package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/or73/Async-API-Pizza-Delivery/internal/apperr"
	"github.com/or73/Async-API-Pizza-Delivery/internal/models"
	"github.com/or73/Async-API-Pizza-Delivery/internal/repositories"
)

// CartLine names a cart line and its new quantity.
type CartLine struct {
	Name string `json:"name" validate:"required"`
	Qtty int    `json:"qtty" validate:"gt=0"`
}

type cartLinesInput struct {
	Items []CartLine `json:"items" validate:"required,min=1,dive"`
}

// CartService handles business logic for shopping carts. Every cart is
// keyed by its owner's email.
type CartService struct {
	carts *repositories.RecordStore
	menus *repositories.RecordStore
	users *repositories.RecordStore
	auth  *Authenticator
}

// NewCartService creates a new CartService.
func NewCartService(db *repositories.DB, auth *Authenticator) *CartService {
	return &CartService{
		carts: db.Store(repositories.ShoppingCarts),
		menus: db.Store(repositories.Menus),
		users: db.Store(repositories.Users),
		auth:  auth,
	}
}

// Create stores an empty cart for the caller.
func (s *CartService) Create(ctx context.Context, cred Credentials) (models.ShoppingCart, error) {
	const op = "carts.create"

	if _, err := s.auth.Validate(ctx, cred.Token, cred.Email); err != nil {
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	}
	if exists, err := s.users.Exists(ctx, cred.Email); err != nil {
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	} else if !exists {
		return models.ShoppingCart{}, apperr.Errorf(apperr.NotFound, op, "user %s does not exist", cred.Email)
	}
	cart := models.ShoppingCart{
		ID:    uuid.NewString(),
		Email: cred.Email,
		Items: []models.CartItem{},
		Total: 0,
	}
	if err := s.carts.Create(ctx, cart.Email, cart); err != nil {
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	}
	if err := s.markOwner(ctx, cart.Email, true); err != nil {
		// user removed since the check above
		if derr := s.carts.Delete(ctx, cart.Email); derr != nil {
			slog.WarnContext(ctx, "orphan cart left behind", "email", cart.Email, "error", derr)
		}
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	}
	return cart, nil
}

// markOwner records on the user whether they own a cart.
func (s *CartService) markOwner(ctx context.Context, email string, has bool) error {
	_, err := repositories.Modify(ctx, s.users, email, func(u *models.User) error {
		u.ShoppingCartID = has
		return nil
	})
	return err
}

// AddItem appends qtty units of the menu item called item to the caller's
// cart. An item already in the cart must be changed with UpdateItems.
func (s *CartService) AddItem(ctx context.Context, cred Credentials, item string, qtty int) (models.ShoppingCart, error) {
	const op = "carts.addItem"

	if item == "" || qtty <= 0 {
		return models.ShoppingCart{}, apperr.E(apperr.InvalidArgument, op, "missing or invalid required fields (item, qtty)")
	}
	if _, err := s.auth.Validate(ctx, cred.Token, cred.Email); err != nil {
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	}

	var menuItem models.MenuItem
	if err := s.menus.Read(ctx, item, &menuItem); err != nil {
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	}

	cart, err := repositories.Modify(ctx, s.carts, cred.Email, func(c *models.ShoppingCart) error {
		if c.IndexOf(menuItem.Name) >= 0 {
			return apperr.E(apperr.AlreadyExists, op, "item already exists in cart, use update instead")
		}
		c.Items = append(c.Items, models.CartItem{
			Name:  menuItem.Name,
			Price: menuItem.Price,
			Qtty:  qtty,
			Total: menuItem.Price * float64(qtty),
		})
		c.Total = c.Sum()
		return nil
	})
	if err != nil {
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	}
	return cart, nil
}

// Get returns the cart of email, which must be the caller's.
func (s *CartService) Get(ctx context.Context, tokenID, email string) (models.ShoppingCart, error) {
	const op = "carts.get"

	if _, err := s.auth.Validate(ctx, tokenID, email); err != nil {
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	}
	var cart models.ShoppingCart
	if err := s.carts.Read(ctx, email, &cart); err != nil {
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

// ListIDs returns the key of every stored cart.
func (s *CartService) ListIDs(ctx context.Context, cred Credentials) ([]string, error) {
	const op = "carts.list"

	if _, err := s.auth.Validate(ctx, cred.Token, cred.Email); err != nil {
		return nil, apperr.Annotate(err, op)
	}
	ids, err := s.carts.ListKeys(ctx)
	if err != nil {
		return nil, apperr.Annotate(err, op)
	}
	return ids, nil
}

func checkCartOwner(op string, cred Credentials, id string) error {
	if !validEmail(id) || id != cred.Email {
		return apperr.E(apperr.InvalidArgument, op, "missing or invalid required fields (shopping cart id)")
	}
	return nil
}

// UpdateItems sets the quantity of every cart line named in lines and
// recomputes the line totals. Names that match no cart line are ignored
// without error.
func (s *CartService) UpdateItems(ctx context.Context, cred Credentials, id string, lines []CartLine) (models.ShoppingCart, error) {
	const op = "carts.updateItems"

	if err := checkCartOwner(op, cred, id); err != nil {
		return models.ShoppingCart{}, err
	}
	if err := checkInput(op, cartLinesInput{Items: lines}); err != nil {
		return models.ShoppingCart{}, err
	}
	if _, err := s.auth.Validate(ctx, cred.Token, cred.Email); err != nil {
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	}

	qtty := make(map[string]int, len(lines))
	for _, l := range lines {
		qtty[l.Name] = l.Qtty
	}

	cart, err := repositories.Modify(ctx, s.carts, id, func(c *models.ShoppingCart) error {
		for i := range c.Items {
			q, ok := qtty[c.Items[i].Name]
			if !ok {
				continue
			}
			c.Items[i].Qtty = q
			c.Items[i].Total = c.Items[i].Price * float64(q)
		}
		c.Total = c.Sum()
		return nil
	})
	if err != nil {
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	}
	return cart, nil
}

// DeleteItems removes the cart lines named in names. It fails with NoMatch
// when none of the names is in the cart.
func (s *CartService) DeleteItems(ctx context.Context, cred Credentials, id string, names []string) (models.ShoppingCart, error) {
	const op = "carts.deleteItems"

	if err := checkCartOwner(op, cred, id); err != nil {
		return models.ShoppingCart{}, err
	}
	if len(names) == 0 {
		return models.ShoppingCart{}, apperr.E(apperr.InvalidArgument, op, "missing or invalid required fields (items)")
	}
	if _, err := s.auth.Validate(ctx, cred.Token, cred.Email); err != nil {
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	}

	remove := make(map[string]bool, len(names))
	for _, n := range names {
		remove[n] = true
	}

	cart, err := repositories.Modify(ctx, s.carts, id, func(c *models.ShoppingCart) error {
		var positions []int
		for i, item := range c.Items {
			if remove[item.Name] {
				positions = append(positions, i)
			}
		}
		if len(positions) == 0 {
			return apperr.E(apperr.NoMatch, op, "no items found in shopping cart")
		}
		// highest index first so earlier positions stay valid
		sort.Sort(sort.Reverse(sort.IntSlice(positions)))
		for _, p := range positions {
			c.Items = append(c.Items[:p], c.Items[p+1:]...)
		}
		c.Total = c.Sum()
		return nil
	})
	if err != nil {
		return models.ShoppingCart{}, apperr.Annotate(err, op)
	}
	return cart, nil
}

// Delete removes the whole cart.
func (s *CartService) Delete(ctx context.Context, cred Credentials, id string) error {
	const op = "carts.delete"

	if err := checkCartOwner(op, cred, id); err != nil {
		return err
	}
	if _, err := s.auth.Validate(ctx, cred.Token, cred.Email); err != nil {
		return apperr.Annotate(err, op)
	}
	if err := s.carts.Delete(ctx, id); err != nil {
		return apperr.Annotate(err, op)
	}
	if err := s.markOwner(ctx, id, false); err != nil && !apperr.Is(err, apperr.NotFound) {
		return apperr.Annotate(err, op)
	}
	return nil
}
