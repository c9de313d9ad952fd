package env

import "testing"

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("GASDROP_TEST_BLANK", "   ")
	if got := Get("GASDROP_TEST_BLANK", "json"); got != "json" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("GASDROP_TEST_BLANK", " console ")
	if got := Get("GASDROP_TEST_BLANK", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestFirstPrefersEarlierKeys(t *testing.T) {
	t.Setenv("GASDROP_LOG_FORMAT", "")
	t.Setenv("LOG_FORMAT", "console")
	if got := First("json", "GASDROP_LOG_FORMAT", "LOG_FORMAT"); got != "console" {
		t.Fatalf("expected LOG_FORMAT value, got %q", got)
	}
	t.Setenv("GASDROP_LOG_FORMAT", "json")
	if got := First("console", "GASDROP_LOG_FORMAT", "LOG_FORMAT"); got != "json" {
		t.Fatalf("expected prefixed value to win, got %q", got)
	}
	if got := First("json"); got != "json" {
		t.Fatalf("expected fallback with no keys, got %q", got)
	}
}
