package textutil

import (
	"strings"
	"testing"
)

func TestTruncateShortStringUnchanged(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("expected unchanged string, got %q", got)
	}
}

func TestTruncateLongString(t *testing.T) {
	got := Truncate(strings.Repeat("x", 600), 100)
	if !strings.HasPrefix(got, strings.Repeat("x", 100)) {
		t.Errorf("expected truncated prefix, got %q", got[:120])
	}
	if !strings.Contains(got, "total: 600 chars") {
		t.Errorf("expected original length in suffix, got %q", got)
	}
}

func TestTruncateZeroMaxUsesDefault(t *testing.T) {
	long := strings.Repeat("y", DefaultMaxLength+50)
	got := Truncate(long, 0)
	if len(got) >= len(long) {
		t.Error("expected truncation with default max length")
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 4},         // overhead only
		{"abcd", 5},     // 1 content token + overhead
		{"abcde", 6},    // ceil(5/4) = 2, + overhead
		{"abcdefgh", 6}, // 2 content tokens + overhead
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.content); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

func TestEstimateTokensIsMonotonic(t *testing.T) {
	prev := 0
	for n := 0; n <= 64; n += 4 {
		got := EstimateTokens(strings.Repeat("a", n))
		if got < prev {
			t.Fatalf("estimate decreased at length %d: %d < %d", n, got, prev)
		}
		prev = got
	}
}
