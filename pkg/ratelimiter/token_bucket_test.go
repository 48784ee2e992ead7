package ratelimiter

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketBurst(t *testing.T) {
	tb := NewTokenBucket(1, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d within burst capacity should be allowed", i)
		}
	}
	if tb.Allow() {
		t.Error("request beyond burst capacity should be denied")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(100, 1)

	if !tb.Allow() {
		t.Fatal("first request should be allowed")
	}
	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(50 * time.Millisecond)
	if !tb.Allow() {
		t.Error("bucket should have refilled")
	}
}

func TestWaitCancelled(t *testing.T) {
	tb := NewTokenBucket(0.001, 1)
	tb.Allow() // drain

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := Wait(ctx, tb); err == nil {
		t.Error("Wait should fail once the context expires")
	}
}

func TestWaitImmediate(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	if err := Wait(context.Background(), tb); err != nil {
		t.Errorf("Wait with available token returned error: %v", err)
	}
}
