package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"gopkg.in/resty.v1"
)

// HTTPGateway posts charges to a payment processor over HTTP. Every request
// carries a short-lived HS256 bearer token signed with the shared secret.
type HTTPGateway struct {
	client *resty.Client
	secret []byte
	now    func() time.Time
}

// NewHTTPGateway creates a gateway for the processor at baseURL.
func NewHTTPGateway(baseURL, secret string, timeout time.Duration) *HTTPGateway {
	client := resty.New().
		SetHostURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &HTTPGateway{
		client: client,
		secret: []byte(secret),
		now:    time.Now,
	}
}

type chargeRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Email       string `json:"receipt_email"`
}

type chargeSource struct {
	Brand   string `json:"brand"`
	Last4   string `json:"last4"`
	Country string `json:"country"`
}

type chargeResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Paid    bool         `json:"paid"`
	Created int64        `json:"created"`
	Source  chargeSource `json:"source"`
}

type chargeError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *HTTPGateway) bearer(subject string) (string, error) {
	now := g.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Issuer:    "pizza-delivery",
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Minute).Unix(),
	})
	return token.SignedString(g.secret)
}

// Capture charges req.Amount to the customer identified by req.Email.
func (g *HTTPGateway) Capture(ctx context.Context, req CaptureRequest) (*Authorization, error) {
	token, err := g.bearer(req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payment request: %w", err)
	}

	var result chargeResponse
	var failure chargeError
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(chargeRequest{
			Amount:      req.Amount,
			Currency:    strings.ToLower(req.Currency),
			Description: req.Description,
			Email:       req.Email,
		}).
		SetResult(&result).
		SetError(&failure).
		Post("/charges")
	if err != nil {
		return nil, fmt.Errorf("payment request failed: %w", err)
	}
	if resp.IsError() {
		msg := failure.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("%w: %s", ErrDeclined, msg)
	}
	if !result.Paid {
		return nil, fmt.Errorf("%w: charge %s not paid", ErrDeclined, result.ID)
	}

	return &Authorization{
		ID:       result.ID,
		Object:   result.Object,
		Approved: true,
		Brand:    result.Source.Brand,
		Last4:    result.Source.Last4,
		Country:  result.Source.Country,
		Created:  time.Unix(result.Created, 0),
	}, nil
}
