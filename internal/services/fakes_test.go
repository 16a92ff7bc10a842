package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-relay-bot/internal/domain"
	"github.com/tbourn/go-relay-bot/internal/repo"
)

// newTestDB opens a migrated SQLite file under t.TempDir.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "services_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type sentText struct {
	ChatID  int64
	Text    string
	ReplyTo int64
}

type forwardCall struct {
	ToChatID  int64
	From      domain.Location
	MessageID int64
}

// fakeTransport records every call and hands out increasing message ids.
type fakeTransport struct {
	mu sync.Mutex

	nextID   int64
	texts    []sentText
	forwards []forwardCall
	fetches  int
	relays   []*domain.Content
	deletes  [][]int64

	sendErr    error
	sendErrAt  int // fail the n-th SendText (1-based); 0 means every call when sendErr is set
	forwardErr error
	fetchErr   error
	fetchNil   bool
	relayErr   error
	deleteErr  error
	username   string
	nameErr    error
}

func (f *fakeTransport) id() int64 {
	f.nextID++
	return 100 + f.nextID
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string, replyTo int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, sentText{chatID, text, replyTo})
	if f.sendErr != nil && (f.sendErrAt == 0 || f.sendErrAt == len(f.texts)) {
		return 0, f.sendErr
	}
	return f.id(), nil
}

func (f *fakeTransport) Forward(_ context.Context, to int64, from domain.Location, messageID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwards = append(f.forwards, forwardCall{to, from, messageID})
	if f.forwardErr != nil {
		return 0, f.forwardErr
	}
	return f.id(), nil
}

func (f *fakeTransport) Fetch(_ context.Context, from domain.Location, messageID int64) (*domain.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.fetchNil {
		return nil, nil
	}
	return &domain.Content{Source: from, MessageID: messageID}, nil
}

func (f *fakeTransport) Relay(_ context.Context, _ int64, c *domain.Content) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relays = append(f.relays, c)
	if f.relayErr != nil {
		return 0, f.relayErr
	}
	return f.id(), nil
}

func (f *fakeTransport) Delete(_ context.Context, _ int64, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, append([]int64(nil), ids...))
	return f.deleteErr
}

func (f *fakeTransport) Username(context.Context) (string, error) {
	return f.username, f.nameErr
}

type scheduled struct {
	ChatID int64
	IDs    []int64
	Delay  time.Duration
}

// fakeExpirer records schedules instead of running them.
type fakeExpirer struct {
	mu    sync.Mutex
	calls []scheduled
}

func (e *fakeExpirer) ScheduleDelete(chatID int64, ids []int64, delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, scheduled{chatID, append([]int64(nil), ids...), delay})
}

type staticName string

func (n staticName) Get(context.Context) string { return string(n) }
