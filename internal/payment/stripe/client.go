// Package stripe creates embedded checkout sessions for organisations
// outside the Mercado Pago footprint. Card data never touches this
// service; it only brokers the session and hands the client secret back
// to the web client.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const sessionPath = "admin/organisation/create-order-stripe-session"

// ErrMissingAuthToken means the checkout session has no access token.
var ErrMissingAuthToken = errors.New("stripe: missing access token")

// Client creates checkout sessions through the payments backend.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second),
	}
}

// Product is one cart line forwarded to session creation.
type Product struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int32   `json:"quantity"`
}

// SessionRequest is the session creation payload.
type SessionRequest struct {
	CustomerEmail  string    `json:"customerEmail"`
	OrganisationID string    `json:"organisationId"`
	OrderID        string    `json:"orderId"`
	Products       []Product `json:"products"`
	Total          float64   `json:"total"`
	RestaurantName string    `json:"restaurantName"`
	Currency       string    `json:"currency"`
}

// Session is an embedded checkout session ready for the web client.
type Session struct {
	ClientSecret string `json:"clientSecret"`
	AccountID    string `json:"accountId"`
}

type sessionEnvelope struct {
	Data    Session `json:"data"`
	Message string  `json:"message"`
}

// CreateSession asks the payments backend for an embedded checkout
// session on the organisation's connected account.
func (c *Client) CreateSession(ctx context.Context, accessToken string, req SessionRequest) (*Session, error) {
	if accessToken == "" {
		return nil, ErrMissingAuthToken
	}

	var envelope sessionEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(req).
		SetResult(&envelope).
		SetError(&envelope).
		Post(sessionPath)
	if err != nil {
		return nil, fmt.Errorf("create stripe session: %w", err)
	}
	if resp.IsError() {
		if envelope.Message != "" {
			return nil, fmt.Errorf("create stripe session: %s", envelope.Message)
		}
		return nil, fmt.Errorf("create stripe session: status %d", resp.StatusCode())
	}
	if envelope.Data.ClientSecret == "" {
		return nil, errors.New("create stripe session: empty client secret")
	}
	return &envelope.Data, nil
}
