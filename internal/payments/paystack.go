// Package payments talks to the Paystack transaction API and validates its
// webhook signatures.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.paystack.co"

	// StatusSuccess is the transaction status Paystack reports for a captured payment.
	StatusSuccess = "success"
	// EventChargeSuccess is the webhook event emitted after a successful charge.
	EventChargeSuccess = "charge.success"
	// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body.
	SignatureHeader = "x-paystack-signature"
)

var (
	ErrMissingSecret = errors.New("payments: paystack secret key not configured")
	ErrProvider      = errors.New("payments: provider request failed")
)

// Client is a minimal Paystack REST client.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(secretKey string, opts ...Option) *Client {
	c := &Client{
		secretKey:  secretKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InitializeRequest starts a hosted checkout. Amount is in the currency subunit.
type InitializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// ProviderError carries the message Paystack returned with a failed call.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("paystack: http %d", e.StatusCode)
	}
	return fmt.Sprintf("paystack: http %d: %s", e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error { return ErrProvider }

func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (Authorization, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Authorization{}, fmt.Errorf("encode initialize request: %w", err)
	}
	var out envelope[Authorization]
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body), &out); err != nil {
		return Authorization{}, err
	}
	if !out.Status {
		return Authorization{}, &ProviderError{StatusCode: http.StatusOK, Message: out.Message}
	}
	return out.Data, nil
}

// Verify fetches the transaction for reference. A transaction that exists but
// did not succeed is returned without error; callers check Transaction.Status.
func (c *Client) Verify(ctx context.Context, reference string) (Transaction, error) {
	var out envelope[Transaction]
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return Transaction{}, err
	}
	if !out.Status {
		return Transaction{}, &ProviderError{StatusCode: http.StatusOK, Message: out.Message}
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	if strings.TrimSpace(c.secretKey) == "" {
		return ErrMissingSecret
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrProvider, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var failure envelope[json.RawMessage]
		_ = json.Unmarshal(raw, &failure)
		return &ProviderError{StatusCode: resp.StatusCode, Message: failure.Message}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrProvider, err)
	}
	return nil
}
