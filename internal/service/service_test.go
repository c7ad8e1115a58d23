package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryGenerate_RetriesOnce(t *testing.T) {
	calls := 0

	out, err := retryGenerate(context.Background(), time.Millisecond, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient")
		}

		return "ok", nil
	})
	if err != nil || out != "ok" {
		t.Fatalf("got %q, %v", out, err)
	}

	if calls != 2 {
		t.Errorf("calls = %d, want first try plus one retry", calls)
	}
}

func TestRetryGenerate_CancelledContextSkipsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	start := time.Now()

	_, err := retryGenerate(ctx, time.Minute, func(context.Context) (string, error) {
		calls++
		cancel()

		return "", errors.New("backend down")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the cancellation cause, got %v", err)
	}

	if calls != 1 {
		t.Errorf("calls = %d, want no retry after cancellation", calls)
	}

	if time.Since(start) > time.Second {
		t.Error("backoff should be skipped when the context is already dead")
	}
}

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"7C9E6679-7425-40DE-944B-E07FC1F90AE7", "7c9e6679-7425-40de-944b-e07fc1f90ae7"},
		{"7c9e6679-7425-40de-944b-e07fc1f90ae7", "7c9e6679-7425-40de-944b-e07fc1f90ae7"},
		{"not-a-uuid", "not-a-uuid"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := canonicalID(tc.in); got != tc.want {
			t.Errorf("canonicalID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
