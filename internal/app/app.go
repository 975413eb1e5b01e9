// Package app is the composition root: it builds the record store, the
// services and their collaborators, and the Fiber application serving them.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/streadway/amqp"

	"github.com/or73/Async-API-Pizza-Delivery/internal/config"
	"github.com/or73/Async-API-Pizza-Delivery/internal/handlers"
	"github.com/or73/Async-API-Pizza-Delivery/internal/metrics"
	"github.com/or73/Async-API-Pizza-Delivery/internal/middleware"
	"github.com/or73/Async-API-Pizza-Delivery/internal/notify"
	"github.com/or73/Async-API-Pizza-Delivery/internal/payments"
	"github.com/or73/Async-API-Pizza-Delivery/internal/repositories"
	"github.com/or73/Async-API-Pizza-Delivery/internal/services"
	"github.com/or73/Async-API-Pizza-Delivery/pkg/rabbitmq"
)

// App is a fully wired service.
type App struct {
	Fiber   *fiber.App
	Config  *config.Config
	DB      *repositories.DB
	Metrics *metrics.Metrics

	// queue is set when receipts go through RabbitMQ.
	queue *rabbitmq.Client
}

// New wires every component described by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	backend, err := repositories.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s record store: %w", cfg.StoreDriver, err)
	}

	a := &App{
		Config:  cfg,
		Metrics: metrics.New(),
	}
	a.DB = repositories.NewDB(backend, a.Metrics)

	notifier, err := a.receiptNotifier()
	if err != nil {
		a.DB.Close()
		return nil, err
	}

	hasher := services.NewPasswordHasher(cfg.HashCost)
	auth := services.NewAuthenticator(a.DB, nil)
	tokens := services.NewTokenService(a.DB, hasher, cfg.TokenTTL, nil)
	users := services.NewUserService(a.DB, auth, tokens, hasher)
	menus := services.NewMenuService(a.DB, auth)
	carts := services.NewCartService(a.DB, auth)
	orders := services.NewOrderService(a.DB, auth, gateway(cfg), notifier, a.Metrics, services.OrderOptions{
		Policy:   cfg.OrderPolicy,
		Currency: cfg.Currency,
	})

	a.Fiber = fiber.New(fiber.Config{
		AppName:      "pizza-delivery",
		ErrorHandler: handlers.ErrorHandler,
	})
	a.Fiber.Use(recover.New())
	a.Fiber.Use(fiberlogger.New())
	a.Fiber.Use(middleware.Metrics(a.Metrics))
	a.Fiber.Use(middleware.Credentials())

	a.Fiber.Get("/health", a.health)
	a.Fiber.Get("/metrics", adaptor.HTTPHandler(a.Metrics.Handler()))

	handlers.Mount(a.Fiber,
		handlers.NewUserHandler(users),
		handlers.NewTokenHandler(tokens),
		handlers.NewMenuHandler(menus),
		handlers.NewCartHandler(carts),
		handlers.NewOrderHandler(orders),
	)

	slog.Info("application wired",
		"store", cfg.StoreDriver,
		"payments", cfg.PaymentDriver,
		"notify", cfg.NotifyDriver,
		"orderPolicy", cfg.OrderPolicy,
	)
	return a, nil
}

func gateway(cfg *config.Config) payments.Gateway {
	if cfg.PaymentDriver == "http" {
		return payments.NewHTTPGateway(cfg.PaymentURL, cfg.PaymentSecret, cfg.PaymentTimeout)
	}
	return payments.NewSimulatedGateway()
}

// receiptNotifier returns the notifier the order service sends receipts
// through, connecting to RabbitMQ when NOTIFY_DRIVER=rabbitmq.
func (a *App) receiptNotifier() (notify.Notifier, error) {
	switch a.Config.NotifyDriver {
	case "rabbitmq":
		client, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:   a.Config.RabbitMQURL,
			Queue: a.Config.ReceiptQueue,
		})
		if err != nil {
			return nil, err
		}
		a.queue = client
		return notify.NewQueueNotifier(client), nil
	case "smtp":
		return notify.NewSMTPNotifier(a.Config.Mail), nil
	default:
		return notify.NewLogNotifier(nil), nil
	}
}

// deliveryNotifier is where queued receipts end up: SMTP when a mail host
// is configured, the log otherwise.
func (a *App) deliveryNotifier() notify.Notifier {
	if a.Config.Mail.Host != "" {
		return notify.NewSMTPNotifier(a.Config.Mail)
	}
	return notify.NewLogNotifier(nil)
}

// ConsumeReceipts delivers queued receipts until ctx is done. It returns
// immediately when receipts are not queued.
func (a *App) ConsumeReceipts(ctx context.Context) error {
	if a.queue == nil {
		return nil
	}
	relay := notify.Relay(ctx, a.deliveryNotifier())
	return a.queue.Consume(ctx, func(msg amqp.Delivery) error {
		err := relay(msg.Body)
		a.Metrics.ObserveNotification(err)
		return err
	})
}

func (a *App) health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"store":  a.Config.StoreDriver,
		"notify": a.Config.NotifyDriver,
	})
}

// Listen serves HTTP on the configured port until Shutdown.
func (a *App) Listen() error {
	return a.Fiber.Listen(a.Config.AppPort)
}

// Shutdown stops the HTTP server, waiting up to timeout for in-flight
// requests, then releases the queue and the record store.
func (a *App) Shutdown(timeout time.Duration) error {
	var errs []error
	if a.Fiber != nil {
		if err := a.Fiber.ShutdownWithTimeout(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop http server: %w", err))
		}
	}
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close record store: %w", err))
	}
	return errors.Join(errs...)
}
