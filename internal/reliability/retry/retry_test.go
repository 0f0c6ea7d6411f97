package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func fastConfig() *Config {
	return &Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, BackoffMultiplier: 2}
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(), quiet(), "write", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("broker not ready")
		}
		return 42, nil
	})
	if err != nil || got != 42 || calls != 3 {
		t.Fatalf("got %d, %v after %d calls", got, err, calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	sentinel := errors.New("message too large")
	calls := 0
	_, err := Do(context.Background(), fastConfig(), quiet(), "write", func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) || calls != 1 {
		t.Fatalf("expected one call returning the sentinel, got %v after %d calls", err, calls)
	}
}

func TestDoGivesUp(t *testing.T) {
	sentinel := errors.New("down")
	_, err := Do(context.Background(), fastConfig(), quiet(), "write", func(context.Context) (int, error) {
		return 0, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxAttempts: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour, BackoffMultiplier: 1}
	go cancel()
	_, err := Do(ctx, cfg, quiet(), "write", func(context.Context) (int, error) {
		return 0, errors.New("down")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	cfg := &Config{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, BackoffMultiplier: 2}
	if got := Backoff(0, cfg); got != time.Second {
		t.Fatalf("first backoff = %s", got)
	}
	if got := Backoff(4, cfg); got != 3*time.Second {
		t.Fatalf("capped backoff = %s", got)
	}
}
