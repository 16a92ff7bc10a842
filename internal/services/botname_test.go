package services

import (
	"context"
	"errors"
	"testing"
)

func TestNameCache_CachesSuccess(t *testing.T) {
	calls := 0
	c := NewNameCache(func(context.Context) (string, error) {
		calls++
		return "@RealBot", nil
	}, "Fallback")

	for i := 0; i < 3; i++ {
		if got := c.Get(context.Background()); got != "RealBot" {
			t.Fatalf("Get: %q", got)
		}
	}
	if calls != 1 {
		t.Fatalf("resolve called %d times", calls)
	}
}

func TestNameCache_RetriesAfterFailure(t *testing.T) {
	fail := true
	calls := 0
	c := NewNameCache(func(context.Context) (string, error) {
		calls++
		if fail {
			return "", errors.New("offline")
		}
		return "RealBot", nil
	}, "Fallback")

	if got := c.Get(context.Background()); got != "Fallback" {
		t.Fatalf("want fallback, got %q", got)
	}
	fail = false
	if got := c.Get(context.Background()); got != "RealBot" {
		t.Fatalf("want resolved name, got %q", got)
	}
	if calls != 2 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestNameCache_NilResolver(t *testing.T) {
	if got := NewNameCache(nil, "Fallback").Get(context.Background()); got != "Fallback" {
		t.Fatalf("got %q", got)
	}
}
