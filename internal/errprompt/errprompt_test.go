package errprompt

import (
	"strings"
	"testing"
)

func TestMatchObjectNotExist(t *testing.T) {
	t.Parallel()
	m, err := NewMatcher([]Rule{
		{Pattern: `(?i)does not exist or not authorized`, Message: "The object may not exist or may be hidden. Use list_tables to see what is available."},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := m.Match("SQL compilation error: Object 'FOO' does not exist or not authorized.")
	if got != "The object may not exist or may be hidden. Use list_tables to see what is available." {
		t.Fatalf("unexpected message: %s", got)
	}
}

func TestMatchWarehouseSuspended(t *testing.T) {
	t.Parallel()
	m, err := NewMatcher([]Rule{
		{Pattern: `(?i)no active warehouse`, Message: "No warehouse is active. Ask the user to configure a warehouse for this server."},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := m.Match("No active warehouse selected in the current session.")
	if got == "" {
		t.Fatal("expected a match for warehouse error, got empty string")
	}
}

func TestNoMatch(t *testing.T) {
	t.Parallel()
	m, err := NewMatcher([]Rule{
		{Pattern: `(?i)does not exist or not authorized`, Message: "The object may not exist."},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Match("network unreachable"); got != "" {
		t.Fatalf("expected empty string for unmatched error, got %q", got)
	}
}

func TestMultipleMatchesJoined(t *testing.T) {
	t.Parallel()
	m, err := NewMatcher([]Rule{
		{Pattern: `timeout`, Message: "The query timed out."},
		{Pattern: `cancelled`, Message: "The query was cancelled."},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := m.Match("statement cancelled: timeout exceeded")
	if !strings.Contains(got, "timed out") || !strings.Contains(got, "cancelled") {
		t.Fatalf("expected both messages, got %q", got)
	}
}

func TestMatchedPatterns(t *testing.T) {
	t.Parallel()
	m, err := NewMatcher([]Rule{
		{Pattern: `timeout`, Message: "The query timed out."},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	patterns := m.MatchedPatterns("statement timeout")
	if len(patterns) != 1 || patterns[0] != "timeout" {
		t.Fatalf("unexpected patterns: %v", patterns)
	}
	if patterns := m.MatchedPatterns("fine"); patterns != nil {
		t.Fatalf("expected nil for no match, got %v", patterns)
	}
}

func TestNewMatcherInvalidRegex(t *testing.T) {
	t.Parallel()
	_, err := NewMatcher([]Rule{{Pattern: `[bad`, Message: "x"}})
	if err == nil {
		t.Fatal("expected error for invalid regex")
	}
}
