package types

import (
	"context"
	"testing"
)

func TestRunIDRoundTrip(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-abc-123")
	if got := GetRunID(ctx); got != "run-abc-123" {
		t.Errorf("GetRunID() = %q, want %q", got, "run-abc-123")
	}
}

func TestGetRunIDMissing(t *testing.T) {
	if got := GetRunID(context.Background()); got != "" {
		t.Errorf("GetRunID() on empty context = %q, want empty", got)
	}
}
