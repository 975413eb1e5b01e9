// Package notify delivers order receipts.
//
// Delivery is best effort: callers log a failed Send and carry on.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Message is a formatted notification ready for delivery.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Notifier is the notification collaborator.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a LogNotifier writing to l, or to the default
// logger when l is nil.
func NewLogNotifier(l *slog.Logger) *LogNotifier {
	if l == nil {
		l = slog.Default()
	}
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "notification", "to", msg.To, "subject", msg.Subject, "bytes", len(msg.HTML))
	return nil
}

// Publisher is the queue client a QueueNotifier hands messages to.
type Publisher interface {
	Publish(contentType string, body []byte) error
}

// QueueNotifier enqueues messages for a background consumer to deliver.
type QueueNotifier struct {
	publisher Publisher
}

// NewQueueNotifier creates a QueueNotifier publishing through p.
func NewQueueNotifier(p Publisher) *QueueNotifier {
	return &QueueNotifier{publisher: p}
}

func (n *QueueNotifier) Send(_ context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := n.publisher.Publish("application/json", body); err != nil {
		return fmt.Errorf("failed to enqueue notification for %s: %w", msg.To, err)
	}
	return nil
}

// Relay decodes queued messages and delivers them through next. It is the
// consumer side of QueueNotifier.
func Relay(ctx context.Context, next Notifier) func(body []byte) error {
	return func(body []byte) error {
		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("malformed notification: %w", err)
		}
		return next.Send(ctx, msg)
	}
}
