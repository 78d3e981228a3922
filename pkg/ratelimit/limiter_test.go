package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, 200*time.Millisecond)

	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}
	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	time.Sleep(100 * time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected tokens to refill while waiting")
	}

	tb.Reset()
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d after reset", i+1)
		}
	}
}

func TestTokenBucketWaitRefills(t *testing.T) {
	tb := NewTokenBucket(1, 100*time.Millisecond)
	if !tb.Allow() {
		t.Fatal("first token should be available")
	}

	start := time.Now()
	if err := tb.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("Wait() returned before the bucket refilled")
	}
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	tb.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := tb.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, 200*time.Millisecond)

	for i := 0; i < 3; i++ {
		if !sw.Allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}
	if sw.Allow() {
		t.Error("Expected request to be denied when limit is reached")
	}

	time.Sleep(250 * time.Millisecond)
	if !sw.Allow() {
		t.Error("Expected request to be allowed after window slides")
	}

	sw.Reset()
	for i := 0; i < 3; i++ {
		if !sw.Allow() {
			t.Errorf("Expected request %d to be allowed after reset", i+1)
		}
	}
}

func TestSlidingWindowWait(t *testing.T) {
	sw := NewSlidingWindow(1, 80*time.Millisecond)
	sw.Allow()

	start := time.Now()
	if err := sw.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if time.Since(start) < 60*time.Millisecond {
		t.Error("Wait() returned before the window slid")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sw.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want canceled", err)
	}
}

func TestPerMinute(t *testing.T) {
	if _, ok := PerMinute(0).(Unlimited); !ok {
		t.Error("PerMinute(0) should not limit")
	}
	l := PerMinute(2)
	if !l.Allow() || !l.Allow() || l.Allow() {
		t.Error("PerMinute(2) should admit exactly two actions")
	}
}
