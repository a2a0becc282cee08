// Package orders submits a cart and the checkout form to the external order
// intake endpoint.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/greensolartech/storefront/internal/cart"
	pkgerrors "github.com/greensolartech/storefront/pkg/errors"
	"github.com/greensolartech/storefront/pkg/logger"
)

const (
	orderPath                   = "/api/orders/"
	defaultTimeout              = 15 * time.Second
	responseReadLimit     int64 = 64 * 1024
	DefaultFailureMessage       = "order submission failed"
)

var errBaseURLRequired = errors.New("order endpoint base url is required")

// Result is a successful submission.
type Result struct {
	StatusCode int
	OrderID    string
	Message    string
}

// Client posts orders to {baseURL}/api/orders/. It never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	csrf       CSRFProvider
	csrfHeader string
	logg       *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

func WithCSRFProvider(p CSRFProvider) Option {
	return func(c *Client) {
		c.csrf = p
	}
}

// WithCSRFHeader overrides the header that carries the token.
func WithCSRFHeader(name string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			c.csrfHeader = trimmed
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logg = l
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		csrfHeader: DefaultCSRFHeader,
		logg:       logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Submit validates the customer fields and posts the order. Validation
// failures and empty carts return CodeValidation without a network call.
// Transport failures, non-2xx statuses and 2xx bodies reporting failure
// return CodeSubmission carrying the server's message when it sent one.
func (c *Client) Submit(ctx context.Context, snapshot cart.Snapshot, customer CustomerFields) (*Result, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order client not configured")
	}

	customer = customer.Trimmed()
	if err := ValidateCustomer(customer); err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		return nil, pkgerrors.Validation("cart is empty")
	}

	payload, err := json.Marshal(NewOrderRequest(snapshot, customer))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+orderPath, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build order request")
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)

	token, err := c.token(ctx)
	if err != nil {
		return nil, pkgerrors.Submission(err, DefaultFailureMessage)
	}
	if token != "" {
		httpReq.Header.Set(c.csrfHeader, token)
	}

	ctx = c.logg.WithField(ctx, "order_request_id", requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logg.Error(ctx, "order request failed", err)
		return nil, pkgerrors.Submission(err, DefaultFailureMessage)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	parsed := parseResponse(body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || parsed.failed() {
		msg := parsed.serverMessage()
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		c.logg.Error(c.logg.WithField(ctx, "upstream_status", resp.StatusCode), "order rejected", cause)
		if msg == "" {
			msg = DefaultFailureMessage
		}
		return nil, pkgerrors.Submission(cause, msg).WithDetails(map[string]any{"status": resp.StatusCode})
	}

	return &Result{
		StatusCode: resp.StatusCode,
		OrderID:    parsed.orderID(),
		Message:    strings.TrimSpace(parsed.Message),
	}, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if t, ok := tokenFromContext(ctx); ok {
		return t, nil
	}
	if c.csrf == nil {
		return "", nil
	}
	return c.csrf.Token(ctx)
}

// orderResponse covers the response shapes of the order endpoint. Every
// field is optional.
type orderResponse struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Detail  string          `json:"detail"`
	OrderID json.RawMessage `json:"order_id"`
}

func parseResponse(body []byte) orderResponse {
	var r orderResponse
	if len(bytes.TrimSpace(body)) == 0 {
		return r
	}
	_ = json.Unmarshal(body, &r)
	return r
}

func (r orderResponse) failed() bool {
	if r.Success != nil && !*r.Success {
		return true
	}
	return r.errorText() != ""
}

func (r orderResponse) errorText() string {
	if len(r.Error) == 0 || string(r.Error) == "null" || string(r.Error) == "false" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Error, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Error, &obj); err == nil && obj.Message != "" {
		return strings.TrimSpace(obj.Message)
	}
	return strings.TrimSpace(string(r.Error))
}

func (r orderResponse) serverMessage() string {
	for _, candidate := range []string{r.errorText(), r.Message, r.Detail} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return ""
}

func (r orderResponse) orderID() string {
	if len(r.OrderID) == 0 || string(r.OrderID) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.OrderID, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(r.OrderID, &n); err == nil {
		return n.String()
	}
	return ""
}
