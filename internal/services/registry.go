package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-relay-bot/internal/domain"
	"github.com/tbourn/go-relay-bot/internal/repo"
)

// LookupStatus tags the outcome of a registry lookup.
type LookupStatus int

const (
	LookupFound LookupStatus = iota
	LookupNotFound
	LookupTransientError
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	default:
		return "transient_error"
	}
}

// LookupResult is what Lookup returns instead of (record, error): callers
// switch on Status. Post is set only for LookupFound, Err only for
// LookupTransientError.
type LookupResult struct {
	Status LookupStatus
	Post   *domain.Post
	Err    error
}

// PostRegistry is the durable code → source location map.
type PostRegistry struct {
	DB *gorm.DB
}

// NewPostRegistry returns a registry over db.
func NewPostRegistry(db *gorm.DB) *PostRegistry {
	return &PostRegistry{DB: db}
}

// Put stores p, replacing any record with the same code.
func (r *PostRegistry) Put(ctx context.Context, p *domain.Post) error {
	ctx, span := otel.Tracer("services/PostRegistry").Start(ctx, "Put",
		trace.WithAttributes(attribute.Int64("post.code", p.PostID)),
	)
	defer span.End()

	return repo.UpsertPost(ctx, r.DB, p)
}

// Lookup reads the record for code without side effects.
func (r *PostRegistry) Lookup(ctx context.Context, code int64) LookupResult {
	ctx, span := otel.Tracer("services/PostRegistry").Start(ctx, "Lookup",
		trace.WithAttributes(attribute.Int64("post.code", code)),
	)
	defer span.End()

	p, err := repo.GetPost(ctx, r.DB, code)
	switch {
	case err == nil:
		return LookupResult{Status: LookupFound, Post: p}
	case errors.Is(err, repo.ErrNotFound):
		return LookupResult{Status: LookupNotFound}
	default:
		span.RecordError(err)
		return LookupResult{Status: LookupTransientError, Err: err}
	}
}
