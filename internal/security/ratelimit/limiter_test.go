package ratelimit

import (
	"testing"
	"time"
)

func TestAllowPerKey(t *testing.T) {
	l := NewLimiter(2)
	defer l.Stop()
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst must be allowed")
	}
	if l.Allow("a") {
		t.Fatal("third request in the same instant must be limited")
	}
	if !l.Allow("b") {
		t.Fatal("keys must not share a bucket")
	}
	now = now.Add(30 * time.Second)
	if !l.Allow("a") {
		t.Fatal("bucket must refill over time")
	}
	if !l.Allow("") {
		t.Fatal("anonymous key is never limited")
	}
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	l := NewLimiter(10)
	defer l.Stop()
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(time.Hour)
	l.Allow("b")
	l.sweep()
	if l.Len() != 1 {
		t.Fatalf("expected only the recent bucket, got %d", l.Len())
	}
}
