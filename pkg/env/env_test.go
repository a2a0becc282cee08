package env

import "testing"

func TestFirstPrefersEarlierKeys(t *testing.T) {
	t.Setenv("CART_LOG_FORMAT", "console")
	t.Setenv("LOG_FORMAT", "json")

	if got := First("x", "CART_LOG_FORMAT", "LOG_FORMAT"); got != "console" {
		t.Fatalf("expected console, got %q", got)
	}
}

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("CART_BLANK", "   ")
	if got := Get("CART_BLANK", "default"); got != "default" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := First("default"); got != "default" {
		t.Fatalf("expected fallback with no keys, got %q", got)
	}
}
