package services

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/tbourn/go-relay-bot/internal/observability"
	"github.com/tbourn/go-relay-bot/internal/repo"
)

// SequenceAllocator issues codes from the persisted counter.
//
// The read-modify-write runs inside a database transaction and, within the
// process, under a mutex, so overlapping Next calls never observe the same
// counter value. A failed transaction leaves the counter untouched.
type SequenceAllocator struct {
	DB *gorm.DB

	mu sync.Mutex
}

// NewSequenceAllocator returns an allocator over db. The counter row is
// created lazily on first use when missing.
func NewSequenceAllocator(db *gorm.DB) *SequenceAllocator {
	return &SequenceAllocator{DB: db}
}

// Next returns the next unused code. Failures are *AllocationError.
func (a *SequenceAllocator) Next(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer("services/SequenceAllocator").Start(ctx, "Next")
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	var code int64
	err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.IncrementSequence(ctx, tx)
		if err != nil {
			return err
		}
		code = c
		return nil
	})
	if err != nil {
		span.RecordError(err)
		observability.AllocationFailures.Inc()
		return 0, &AllocationError{Err: err}
	}
	return code, nil
}
