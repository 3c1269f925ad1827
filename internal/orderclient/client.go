// Package orderclient talks to the remote order API. Only the
// request/response contract lives here; what to do with a fetched order
// is the reconcile package's business.
package orderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront-session/internal/domain"
)

// API is the order resource contract the session controller depends on.
// Update with nil Items clears the order's item list; orders are never
// deleted.
type API interface {
	Create(ctx context.Context, in CreateInput) (*domain.Order, error)
	Read(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, in UpdateInput) (*domain.Order, error)
}

type CreateInput struct {
	Items        domain.Cart `json:"items"`
	DeliveryDate string      `json:"deliveryDate"`
	Currency     string      `json:"currency"`
}

type UpdateInput struct {
	ID           string      `json:"id"`
	Items        domain.Cart `json:"items"` // nil marshals to null: explicit clear
	DeliveryDate string      `json:"deliveryDate"`
	Currency     string      `json:"currency"`
}

// APIError is a non-404 failure reported by the order API. The message is
// human-readable and surfaced to the user as-is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("order api: status %d", e.Status)
	}
	return fmt.Sprintf("order api: %s", e.Message)
}

type envelope struct {
	Data    *domain.Order `json:"data"`
	Error   bool          `json:"error"`
	Status  int           `json:"status"`
	Message string        `json:"message"`
}

// Client is the HTTP implementation of API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client against the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	return c.do(ctx, http.MethodPost, c.baseURL+"/orders", in)
}

func (c *Client) Read(ctx context.Context, id string) (*domain.Order, error) {
	return c.do(ctx, http.MethodGet, c.baseURL+"/orders/"+id, nil)
}

func (c *Client) Update(ctx context.Context, in UpdateInput) (*domain.Order, error) {
	return c.do(ctx, http.MethodPut, c.baseURL+"/orders/"+in.ID, in)
}

func (c *Client) do(ctx context.Context, method, url string, payload interface{}) (*domain.Order, error) {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("order: %w", domain.ErrNotFound)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.Error || resp.StatusCode >= 300 {
		if env.Status == http.StatusNotFound {
			return nil, fmt.Errorf("order: %w", domain.ErrNotFound)
		}
		status := env.Status
		if status == 0 {
			status = resp.StatusCode
		}
		return nil, &APIError{Status: status, Message: env.Message}
	}
	if env.Data == nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "empty order payload"}
	}
	return env.Data, nil
}
