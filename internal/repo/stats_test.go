package repo

import (
	"context"
	"testing"

	"github.com/tbourn/go-relay-bot/internal/domain"
)

func TestRegistryStats_Empty(t *testing.T) {
	db := newRepoDB(t, &domain.Post{}, &domain.Sequence{})
	s, err := RegistryStats(context.Background(), db)
	if err != nil {
		t.Fatalf("RegistryStats: %v", err)
	}
	if s != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", s)
	}
}

func TestRegistryStats_CountsAndMax(t *testing.T) {
	db := newRepoDB(t, &domain.Post{}, &domain.Sequence{})
	ctx := context.Background()
	for _, code := range []int64{3, 11, 5} {
		if err := UpsertPost(ctx, db, &domain.Post{PostID: code, ChannelRef: "@c", MessageID: code}); err != nil {
			t.Fatalf("seed %d: %v", code, err)
		}
	}
	if err := SetSequence(ctx, db, 12); err != nil {
		t.Fatalf("SetSequence: %v", err)
	}

	s, err := RegistryStats(ctx, db)
	if err != nil {
		t.Fatalf("RegistryStats: %v", err)
	}
	want := Stats{Posts: 3, MaxCode: 11, NextID: 12}
	if s != want {
		t.Fatalf("stats = %+v; want %+v", s, want)
	}
}

func TestRegistryStats_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if _, err := RegistryStats(context.Background(), db); err == nil {
		t.Fatalf("expected error when posts table missing")
	}
}
