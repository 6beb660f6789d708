package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinBudget(t *testing.T) {
	l := NewLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("u1") {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if l.Allow("u1") {
		t.Fatal("fourth call should be denied")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	if !l.Allow("u1") {
		t.Fatal("u1 first call denied")
	}
	if !l.Allow("u2") {
		t.Fatal("u2 should have its own budget")
	}
	if l.Allow("u1") {
		t.Fatal("u1 second call should be denied")
	}
}

func TestWindowExpiry(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	current := time.Unix(1000, 0)
	l.now = func() time.Time { return current }

	if !l.Allow("u1") {
		t.Fatal("first call denied")
	}
	if l.Allow("u1") {
		t.Fatal("second call inside window should be denied")
	}

	current = current.Add(61 * time.Second)
	if !l.Allow("u1") {
		t.Fatal("call after window expiry should be allowed")
	}
}

func TestZeroMaxCallsDisablesLimiting(t *testing.T) {
	l := NewLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if !l.Allow("u1") {
			t.Fatal("disabled limiter should allow everything")
		}
	}
}
