package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"

	"github.com/or73/Async-API-Pizza-Delivery/internal/config"
	"github.com/or73/Async-API-Pizza-Delivery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(contentType string, body []byte) error {
	return m.Called(contentType, body).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

func sampleReceipt() Receipt {
	return Receipt{
		Name:    "<b>A</b>",
		Email:   "a@b.com",
		Address: "X",
		Order: models.PurchaseOrder{
			ID:                "o-1",
			Items:             []models.CartItem{{Name: "Burger", Price: 5, Qtty: 3, Total: 15}},
			Total:             15,
			Currency:          "USD",
			AuthorizationDate: "2026/10/18  12:0:0",
			PaymentMethod:     "Visa",
			Last4:             "4242",
		},
	}
}

func TestRenderReceipt(t *testing.T) {
	html, err := RenderReceipt(sampleReceipt())
	require.NoError(t, err)

	assert.Contains(t, html, "&lt;b&gt;A&lt;/b&gt;")
	assert.Contains(t, html, "<td>Burger</td><td>5.00</td><td>3</td><td>15.00</td>")
	assert.Contains(t, html, "15.00 USD")
	assert.Contains(t, html, "ending in 4242")
}

func TestReceiptMessage(t *testing.T) {
	msg, err := ReceiptMessage(sampleReceipt())
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", msg.To)
	assert.Equal(t, "Your pizza order o-1", msg.Subject)
}

func TestQueueNotifierRelay(t *testing.T) {
	pub := new(mockPublisher)
	var published []byte
	pub.On("Publish", "application/json", mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(1).([]byte) }).
		Return(nil).Once()

	msg := Message{To: "a@b.com", Subject: "hi", HTML: "<p>hi</p>"}
	require.NoError(t, NewQueueNotifier(pub).Send(context.Background(), msg))
	pub.AssertExpectations(t)

	next := new(mockNotifier)
	next.On("Send", mock.Anything, msg).Return(nil).Once()
	require.NoError(t, Relay(context.Background(), next)(published))
	next.AssertExpectations(t)

	assert.Error(t, Relay(context.Background(), next)([]byte("not json")))
}

func TestQueueNotifierPublishFailure(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("connection closed"))

	err := NewQueueNotifier(pub).Send(context.Background(), Message{To: "a@b.com"})
	assert.ErrorContains(t, err, "connection closed")
}

func TestSMTPNotifier(t *testing.T) {
	var gotAddr string
	var gotTo []string
	var gotBody []byte

	n := NewSMTPNotifier(config.MailConfig{Host: "smtp.local", Port: "2525", From: "orders@pizza.local"})
	n.sendMail = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotBody = addr, to, msg
		return nil
	}

	require.NoError(t, n.Send(context.Background(), Message{To: "a@b.com", Subject: "Receipt", HTML: "<p>ok</p>"}))
	assert.Equal(t, "smtp.local:2525", gotAddr)
	assert.Equal(t, []string{"a@b.com"}, gotTo)
	assert.True(t, strings.HasSuffix(string(gotBody), "\r\n\r\n<p>ok</p>"))
	assert.Contains(t, string(gotBody), "Content-Type: text/html")

	n.cfg.To = "sandbox@pizza.local"
	require.NoError(t, n.Send(context.Background(), Message{To: "a@b.com"}))
	assert.Equal(t, []string{"sandbox@pizza.local"}, gotTo)
}

func TestSMTPNotifierRequiresHost(t *testing.T) {
	assert.Error(t, NewSMTPNotifier(config.MailConfig{}).Send(context.Background(), Message{To: "a@b.com"}))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, n.Send(context.Background(), Message{To: "a@b.com", Subject: "Receipt"}))
	assert.Contains(t, buf.String(), "to=a@b.com")
}
