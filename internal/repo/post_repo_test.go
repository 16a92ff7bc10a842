package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tbourn/go-relay-bot/internal/domain"
)

func TestUpsertPost_GetPost_RoundTrip(t *testing.T) {
	db := newRepoDB(t, &domain.Post{})
	ctx := context.Background()

	id := int64(-1001)
	in := &domain.Post{PostID: 1, ChannelRef: "@src", ChannelID: &id, MessageID: 55, Timestamp: "2025-01-01T00:00:00Z"}
	if err := UpsertPost(ctx, db, in); err != nil {
		t.Fatalf("UpsertPost: %v", err)
	}
	got, err := GetPost(ctx, db, 1)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertPost_LastWriteWins(t *testing.T) {
	db := newRepoDB(t, &domain.Post{})
	ctx := context.Background()

	id := int64(-1001)
	first := &domain.Post{PostID: 7, ChannelRef: "@a", ChannelID: &id, MessageID: 1, Timestamp: "t1"}
	second := &domain.Post{PostID: 7, ChannelRef: "@b", MessageID: 2, Timestamp: "t2"}
	if err := UpsertPost(ctx, db, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := UpsertPost(ctx, db, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := GetPost(ctx, db, 7)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Fatalf("expected second write to win (-want +got):\n%s", diff)
	}
	var n int64
	db.Model(&domain.Post{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 row after re-upsert, got %d", n)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Post{})
	p, err := GetPost(context.Background(), db, 404)
	if p != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got p=%v err=%v", p, err)
	}
}

func TestUpsertPost_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if err := UpsertPost(context.Background(), db, &domain.Post{PostID: 1}); err == nil {
		t.Fatalf("expected error without posts table")
	}
}
