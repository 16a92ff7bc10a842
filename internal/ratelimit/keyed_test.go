package ratelimit

import (
	"testing"
	"time"
)

func TestKeyed_BurstThenDeny(t *testing.T) {
	k := NewKeyed(0.5, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	k.now = func() time.Time { return now }

	if !k.Allow("chat:1") || !k.Allow("chat:1") {
		t.Fatalf("burst of 2 should be allowed")
	}
	if k.Allow("chat:1") {
		t.Fatalf("third request should be denied")
	}
	if !k.Allow("chat:2") {
		t.Fatalf("other keys have their own bucket")
	}

	now = now.Add(2 * time.Second)
	if !k.Allow("chat:1") {
		t.Fatalf("token should refill after 2s at 0.5 rps")
	}
}

func TestKeyed_DisabledAllowsEverything(t *testing.T) {
	k := NewKeyed(0, 0)
	for i := 0; i < 100; i++ {
		if !k.Allow("x") {
			t.Fatalf("request %d denied with limiting disabled", i)
		}
	}
}

func TestKeyed_EvictsIdleBuckets(t *testing.T) {
	k := NewKeyed(1, 1)
	now := time.Now()
	k.now = func() time.Time { return now }

	k.Allow("old")
	now = now.Add(time.Hour)
	k.lookups = gcEvery - 1
	k.Allow("new")

	if k.Len() != 1 {
		t.Fatalf("want only the fresh bucket, have %d", k.Len())
	}
}

func TestKeyed_ReusesBucket(t *testing.T) {
	k := NewKeyed(1, 1)
	if k.get("a") != k.get("a") {
		t.Fatalf("expected the same limiter for a key")
	}
}
