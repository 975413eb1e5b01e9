package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/or73/Async-API-Pizza-Delivery/internal/apperr"
	"github.com/or73/Async-API-Pizza-Delivery/internal/config"
	"github.com/or73/Async-API-Pizza-Delivery/internal/metrics"
	"github.com/or73/Async-API-Pizza-Delivery/internal/models"
	"github.com/or73/Async-API-Pizza-Delivery/internal/notify"
	"github.com/or73/Async-API-Pizza-Delivery/internal/payments"
	"github.com/or73/Async-API-Pizza-Delivery/internal/repositories"
)

// OrderOptions tunes the OrderService.
type OrderOptions struct {
	// Policy is config.OrderPolicySingle or config.OrderPolicyArchive.
	Policy   string
	Currency string
	Now      Clock
}

// OrderService handles business logic related to purchase orders. Each
// email has at most one current order.
type OrderService struct {
	orders   *repositories.RecordStore
	archive  *repositories.RecordStore
	users    *repositories.RecordStore
	carts    *repositories.RecordStore
	auth     *Authenticator
	gateway  payments.Gateway
	notifier notify.Notifier
	metrics  *metrics.Metrics
	opts     OrderOptions
}

// NewOrderService creates a new OrderService. m may be nil.
func NewOrderService(db *repositories.DB, auth *Authenticator, gateway payments.Gateway, notifier notify.Notifier, m *metrics.Metrics, opts OrderOptions) *OrderService {
	if opts.Policy == "" {
		opts.Policy = config.OrderPolicySingle
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &OrderService{
		orders:   db.Store(repositories.PurchaseOrders),
		archive:  db.Store(repositories.OrderArchive),
		users:    db.Store(repositories.Users),
		carts:    db.Store(repositories.ShoppingCarts),
		auth:     auth,
		gateway:  gateway,
		notifier: notifier,
		metrics:  m,
		opts:     opts,
	}
}

// Create charges the caller's cart and stores the resulting order.
//
// Nothing is stored when the payment fails. A failed receipt notification
// is logged and does not fail the order. Under the single policy a second
// order for the same email fails with AlreadyExists; under the archive
// policy the previous order is moved to the order archive instead.
func (s *OrderService) Create(ctx context.Context, tokenID, email string) (models.PurchaseOrder, error) {
	const op = "orders.create"

	if !validTokenID(tokenID) || !validEmail(email) {
		return models.PurchaseOrder{}, apperr.E(apperr.InvalidArgument, op, "missing or invalid required fields")
	}

	var order models.PurchaseOrder
	err := s.orders.Exclusive(email, func() error {
		var err error
		order, err = s.place(ctx, tokenID, email)
		return err
	})
	if err != nil {
		return models.PurchaseOrder{}, apperr.Annotate(err, op)
	}
	s.metrics.ObserveOrder("created")
	return order, nil
}

// place runs the order flow for email. The caller holds the order claim, so
// the existence check stays true until the order is stored.
func (s *OrderService) place(ctx context.Context, tokenID, email string) (models.PurchaseOrder, error) {
	exists, err := s.orders.Exists(ctx, email)
	if err != nil {
		return models.PurchaseOrder{}, err
	}
	if exists && s.opts.Policy == config.OrderPolicySingle {
		s.metrics.ObserveOrder("rejected")
		return models.PurchaseOrder{}, apperr.E(apperr.AlreadyExists, "", "purchase order already exists")
	}

	var user models.User
	if err := s.users.Read(ctx, email, &user); err != nil {
		return models.PurchaseOrder{}, err
	}
	if _, err := s.auth.Validate(ctx, tokenID, email); err != nil {
		return models.PurchaseOrder{}, err
	}

	cart, err := s.carts.ItemList(ctx, email)
	if err != nil {
		return models.PurchaseOrder{}, err
	}
	if len(cart.Items) == 0 {
		return models.PurchaseOrder{}, apperr.E(apperr.InvalidArgument, "", "shopping cart has no items")
	}

	auth, err := s.gateway.Capture(ctx, payments.CaptureRequest{
		Email:       email,
		Amount:      payments.ToCents(cart.Total),
		Currency:    s.opts.Currency,
		Description: fmt.Sprintf("Charge for %s", email),
	})
	if err != nil {
		s.metrics.ObserveOrder("payment_failed")
		slog.WarnContext(ctx, "payment capture failed", "email", email, "total", cart.Total, "error", err)
		return models.PurchaseOrder{}, apperr.Wrap(apperr.PaymentFailed, "", "electronic payment was not made", err)
	}

	order := models.PurchaseOrder{
		ID:                uuid.NewString(),
		ShoppingCartID:    email,
		Items:             cart.Items,
		Total:             cart.Total,
		Currency:          s.opts.Currency,
		Authorization:     auth.Approved,
		AuthorizationID:   auth.ID,
		AuthorizationDate: models.FormatDate(s.opts.Now()),
		PaymentMethod:     auth.Brand,
		Object:            auth.Object,
		Last4:             auth.Last4,
		Country:           auth.Country,
	}

	s.sendReceipt(ctx, user, order)

	if exists {
		if err := s.archiveCurrent(ctx, email); err != nil {
			slog.ErrorContext(ctx, "paid order not stored", "email", email, "authorization", auth.ID, "error", err)
			return models.PurchaseOrder{}, err
		}
	}
	if err := s.orders.Create(ctx, email, order); err != nil {
		slog.ErrorContext(ctx, "paid order not stored", "email", email, "authorization", auth.ID, "error", err)
		return models.PurchaseOrder{}, err
	}
	return order, nil
}

func (s *OrderService) sendReceipt(ctx context.Context, user models.User, order models.PurchaseOrder) {
	msg, err := notify.ReceiptMessage(notify.Receipt{
		Name:    user.Name,
		Email:   user.Email,
		Address: user.Address,
		Order:   order,
	})
	if err == nil {
		err = s.notifier.Send(ctx, msg)
	}
	s.metrics.ObserveNotification(err)
	if err != nil {
		slog.WarnContext(ctx, "receipt not sent", "email", user.Email, "order", order.ID, "error", err)
	}
}

// archiveCurrent moves the current order of email to the order archive,
// keyed by the order id, and records the id in the user's order history.
func (s *OrderService) archiveCurrent(ctx context.Context, email string) error {
	const op = "orders.archive"

	var current models.PurchaseOrder
	if err := s.orders.Read(ctx, email, &current); err != nil {
		return apperr.Annotate(err, op)
	}
	if err := s.archive.Create(ctx, current.ID, current); err != nil && !apperr.Is(err, apperr.AlreadyExists) {
		return apperr.Annotate(err, op)
	}
	_, err := repositories.Modify(ctx, s.users, email, func(u *models.User) error {
		if !slices.Contains(u.OrdersBackup, current.ID) {
			u.OrdersBackup = append(u.OrdersBackup, current.ID)
		}
		return nil
	})
	if err != nil {
		return apperr.Annotate(err, op)
	}
	if err := s.orders.Delete(ctx, email); err != nil && !apperr.Is(err, apperr.NotFound) {
		return apperr.Annotate(err, op)
	}
	return nil
}

// Get returns the current order of email.
func (s *OrderService) Get(ctx context.Context, tokenID, email string) (models.PurchaseOrder, error) {
	const op = "orders.get"

	if !validTokenID(tokenID) || !validEmail(email) {
		return models.PurchaseOrder{}, apperr.E(apperr.InvalidArgument, op, "missing or invalid required fields")
	}
	if exists, err := s.users.Exists(ctx, email); err != nil {
		return models.PurchaseOrder{}, apperr.Annotate(err, op)
	} else if !exists {
		return models.PurchaseOrder{}, apperr.Errorf(apperr.NotFound, op, "user %s does not exist", email)
	}
	if _, err := s.auth.Validate(ctx, tokenID, email); err != nil {
		return models.PurchaseOrder{}, apperr.Annotate(err, op)
	}

	var order models.PurchaseOrder
	if err := s.orders.Read(ctx, email, &order); err != nil {
		return models.PurchaseOrder{}, apperr.Annotate(err, op)
	}
	return order, nil
}
