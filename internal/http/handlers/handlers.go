package handlers

import (
	"context"
	"sync"

	"github.com/tbourn/go-relay-bot/internal/repo"
	"github.com/tbourn/go-relay-bot/internal/services"
	"github.com/tbourn/go-relay-bot/internal/telegram"
)

// Registry is the read side of the post registry.
type Registry interface {
	Lookup(ctx context.Context, code int64) services.LookupResult
}

// StatsFunc summarizes the registry.
type StatsFunc func(ctx context.Context) (repo.Stats, error)

// PingFunc checks the store.
type PingFunc func(ctx context.Context) error

// UpdateHandler consumes webhook updates.
type UpdateHandler interface {
	Handle(ctx context.Context, u telegram.Update)
}

// Handlers groups the ops endpoints. Nil dependencies disable the endpoints
// that need them.
type Handlers struct {
	registry Registry
	stats    StatsFunc
	ping     PingFunc
	updates  UpdateHandler

	// spawn runs webhook work off the request goroutine.
	spawn    func(func())
	inflight sync.WaitGroup
}

// New constructs Handlers bound to the given dependencies.
func New(registry Registry, stats StatsFunc, ping PingFunc, updates UpdateHandler) *Handlers {
	return &Handlers{
		registry: registry,
		stats:    stats,
		ping:     ping,
		updates:  updates,
		spawn:    func(f func()) { go f() },
	}
}

// dispatch runs f through spawn and tracks it until it returns.
func (h *Handlers) dispatch(f func()) {
	h.inflight.Add(1)
	h.spawn(func() {
		defer h.inflight.Done()
		f()
	})
}

// Drain waits for webhook updates still being processed, or for ctx. Call
// it after the server has stopped accepting requests.
func (h *Handlers) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
