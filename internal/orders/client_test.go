package orders

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/greensolartech/storefront/internal/cart"
	pkgerrors "github.com/greensolartech/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func twoItemSnapshot() cart.Snapshot {
	return cart.NewSnapshot([]cart.LineItem{
		{ID: "123", Name: "Inverter X", Price: decimal.NewFromInt(5000), Quantity: 2},
		{ID: "p2", Name: "Panel", Price: decimal.NewFromInt(2000), Quantity: 1},
	})
}

func validCustomer() CustomerFields {
	return CustomerFields{Name: "Олена", Phone: "+380501234567", Email: "olena@example.com", Comment: "після 18:00"}
}

func newTestClient(t *testing.T, rt roundTripFunc, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: rt})}, opts...)
	client, err := NewClient("http://shop.test/", opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSubmitSendsOrder(t *testing.T) {
	var captured *http.Request
	var payload map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return jsonResponse(http.StatusCreated, `{"success":true,"order_id":42,"message":"ok"}`), nil
	}, WithCSRFProvider(StaticToken("tok-1")))

	res, err := client.Submit(context.Background(), twoItemSnapshot(), validCustomer())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if captured.Method != http.MethodPost || captured.URL.String() != "http://shop.test/api/orders/" {
		t.Fatalf("unexpected request %s %s", captured.Method, captured.URL)
	}
	if captured.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("content type missing")
	}
	if captured.Header.Get("X-CSRFToken") != "tok-1" {
		t.Fatalf("csrf header missing")
	}
	if captured.Header.Get("X-Request-Id") == "" {
		t.Fatalf("request id missing")
	}

	if payload["total"] != float64(12000) {
		t.Fatalf("expected total 12000, got %v", payload["total"])
	}
	items, ok := payload["items"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 items, got %v", payload["items"])
	}
	first := items[0].(map[string]any)
	if first["id"] != "123" || first["price"] != float64(5000) || first["quantity"] != float64(2) {
		t.Fatalf("unexpected first item %v", first)
	}
	customer := payload["customer"].(map[string]any)
	if customer["name"] != "Олена" || customer["comment"] != "після 18:00" {
		t.Fatalf("unexpected customer %v", customer)
	}

	if res.StatusCode != http.StatusCreated || res.OrderID != "42" || res.Message != "ok" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSubmitValidationMakesNoRequest(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	cases := []struct {
		name     string
		customer CustomerFields
		field    string
	}{
		{"missing name", CustomerFields{Name: "  ", Phone: "1"}, "name"},
		{"missing phone", CustomerFields{Name: "A"}, "phone"},
		{"bad email", CustomerFields{Name: "A", Phone: "1", Email: "nope"}, "email"},
	}
	for _, tc := range cases {
		_, err := client.Submit(context.Background(), twoItemSnapshot(), tc.customer)
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		details := pkgerrors.As(err).Details().(map[string]string)
		if _, ok := details[tc.field]; !ok {
			t.Fatalf("%s: expected %q detail, got %v", tc.name, tc.field, details)
		}
	}

	if _, err := client.Submit(context.Background(), cart.NewSnapshot(nil), validCustomer()); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected empty cart validation error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no network calls, got %d", calls)
	}
}

func TestSubmitFailures(t *testing.T) {
	cases := []struct {
		name    string
		rt      roundTripFunc
		message string
	}{
		{
			name: "server error with message",
			rt: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusBadRequest, `{"success":false,"error":"Невірний номер телефону"}`), nil
			},
			message: "Невірний номер телефону",
		},
		{
			name: "server error without body",
			rt: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusInternalServerError, ``), nil
			},
			message: DefaultFailureMessage,
		},
		{
			name: "2xx reporting failure",
			rt: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"success":false,"message":"Товар недоступний"}`), nil
			},
			message: "Товар недоступний",
		},
		{
			name: "csrf rejection detail",
			rt: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusForbidden, `{"detail":"CSRF Failed"}`), nil
			},
			message: "CSRF Failed",
		},
		{
			name: "network error",
			rt: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
			message: DefaultFailureMessage,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.rt)
			res, err := client.Submit(context.Background(), twoItemSnapshot(), validCustomer())
			if res != nil {
				t.Fatalf("expected no result, got %+v", res)
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeSubmission {
				t.Fatalf("expected submission error, got %v", err)
			}
			if !typed.Retryable() {
				t.Fatalf("submission errors must be retryable")
			}
			if typed.Message() != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, typed.Message())
			}
		})
	}
}

func TestSubmitContextTokenOverridesProvider(t *testing.T) {
	var header string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		header = req.Header.Get("X-Custom-CSRF")
		return jsonResponse(http.StatusOK, `{"success":true}`), nil
	}, WithCSRFProvider(StaticToken("static")), WithCSRFHeader("X-Custom-CSRF"))

	ctx := WithToken(context.Background(), "from-browser")
	if _, err := client.Submit(ctx, twoItemSnapshot(), validCustomer()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if header != "from-browser" {
		t.Fatalf("expected browser token, got %q", header)
	}
}

func TestSubmitProviderError(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		t.Fatalf("request must not be sent without a token")
		return nil, nil
	}, WithCSRFProvider(TokenFunc(func(context.Context) (string, error) {
		return "", errors.New("no token")
	})))

	_, err := client.Submit(context.Background(), twoItemSnapshot(), validCustomer())
	if !pkgerrors.HasCode(err, pkgerrors.CodeSubmission) {
		t.Fatalf("expected submission error, got %v", err)
	}
}

func TestRequestToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookie, Value: "cookie-token"})
	if got := RequestToken(r, "", ""); got != "cookie-token" {
		t.Fatalf("expected cookie fallback, got %q", got)
	}

	r.Header.Set(DefaultCSRFHeader, "header-token")
	if got := RequestToken(r, "", ""); got != "header-token" {
		t.Fatalf("expected header token, got %q", got)
	}

	if got := RequestToken(httptest.NewRequest(http.MethodPost, "/", nil), "", ""); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestSubmitAgainstHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true,"order_id":"A-1"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	res, err := client.Submit(context.Background(), twoItemSnapshot(), validCustomer())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.OrderID != "A-1" {
		t.Fatalf("unexpected order id %q", res.OrderID)
	}
}
