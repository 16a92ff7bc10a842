package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-relay-bot/internal/observability"
)

const (
	// DeliveryTTL is how long a delivered copy and its notices stay visible.
	DeliveryTTL = 20 * time.Second
	// HelpTTL is how long the welcome reply stays visible.
	HelpTTL = 9 * time.Second

	deleteTimeout = 15 * time.Second
)

// Scheduler deletes messages after a delay without blocking the caller.
//
// Each pending deletion runs in its own goroutine. Shutdown cuts every
// pending delay short, runs the deletions and waits for them, so nothing
// scheduled is left visible past process exit.
type Scheduler struct {
	deleter Deleter
	after   func(time.Duration) <-chan time.Time

	mu     sync.Mutex
	wg     sync.WaitGroup
	stop   chan struct{}
	closed bool
}

// NewScheduler returns a scheduler deleting through d.
func NewScheduler(d Deleter) *Scheduler {
	return &Scheduler{
		deleter: d,
		after:   time.After,
		stop:    make(chan struct{}),
	}
}

// ScheduleDelete removes ids from chatID once delay has elapsed. An empty
// id list is a no-op. After Shutdown the deletion runs right away.
func (s *Scheduler) ScheduleDelete(chatID int64, ids []int64, delay time.Duration) {
	if len(ids) == 0 {
		return
	}
	ids = append([]int64(nil), ids...)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.run(chatID, ids)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	observability.ExpiryPending.Inc()
	go func() {
		defer s.wg.Done()
		defer observability.ExpiryPending.Dec()

		select {
		case <-s.after(delay):
		case <-s.stop:
		}
		s.run(chatID, ids)
	}()
}

func (s *Scheduler) run(chatID int64, ids []int64) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	if err := s.deleter.Delete(ctx, chatID, ids); err != nil {
		observability.ExpiryDeletions.WithLabelValues("failed").Inc()
		derr := &DeleteError{ChatID: chatID, IDs: ids, Err: err}
		log.Warn().Err(derr).Int64("chat_id", chatID).Ints64("message_ids", ids).Msg("expiry deletion failed")
		return
	}
	observability.ExpiryDeletions.WithLabelValues("ok").Inc()
	log.Debug().Int64("chat_id", chatID).Ints64("message_ids", ids).Msg("expired messages deleted")
}

// Shutdown flushes pending deletions and waits for them or for ctx.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.stop)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
