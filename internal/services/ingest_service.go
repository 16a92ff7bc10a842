package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-relay-bot/internal/domain"
	"github.com/tbourn/go-relay-bot/internal/observability"
)

// Ingestor registers new source-channel posts under fresh codes and tells
// the operator about them.
type Ingestor struct {
	Allocator  Allocator
	Registry   Recorder
	Transport  Transport
	Names      NameSource
	Texts      *Texts
	OperatorID int64
	SourceRef  string

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Ingest handles one channel post and returns its code.
//
// Service events return ErrIneligible. An allocation failure returns a
// *AllocationError and nothing is stored. A registry failure after a
// successful allocation returns that error; the code is lost and never
// reissued. Operator notification failures are logged and do not fail the
// ingestion.
func (s *Ingestor) Ingest(ctx context.Context, post domain.ChannelPost) (int64, error) {
	if post.Service {
		return 0, ErrIneligible
	}

	ctx, span := otel.Tracer("services/Ingestor").Start(ctx, "Ingest",
		trace.WithAttributes(attribute.Int64("message.id", post.MessageID)),
	)
	defer span.End()

	logger := log.With().Int64("update_id", post.UpdateID).Int64("message_id", post.MessageID).Logger()

	code, err := s.Allocator.Next(ctx)
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("code allocation failed; post not registered")
		return 0, err
	}
	span.SetAttributes(attribute.Int64("post.code", code))

	loc := domain.Location{Ref: s.SourceRef}
	if post.ChatID != 0 {
		id := post.ChatID
		loc.ID = &id
	}
	if err := s.Registry.Put(ctx, domain.NewPost(code, loc, post.MessageID, s.now())); err != nil {
		span.RecordError(err)
		observability.RegistryFailures.Inc()
		logger.Error().Err(err).Int64("code", code).Msg("post record not stored; code skipped")
		return 0, err
	}
	observability.PostsIngested.Inc()
	logger.Info().Int64("code", code).Msg("post registered")

	if err := s.notify(ctx, code, loc, post.MessageID); err != nil {
		observability.NotifyFailures.Inc()
		logger.Error().Err(err).Int64("code", code).Msg("operator notification failed")
	}
	return code, nil
}

func (s *Ingestor) notify(ctx context.Context, code int64, loc domain.Location, messageID int64) error {
	link := DeepLink(s.Names.Get(ctx), code)
	_, errText := s.Transport.SendText(ctx, s.OperatorID, s.Texts.PostSaved(code, link), 0)
	_, errFwd := s.Transport.Forward(ctx, s.OperatorID, loc, messageID)
	if err := errors.Join(errText, errFwd); err != nil {
		return &NotifyError{Code: code, Err: err}
	}
	return nil
}

func (s *Ingestor) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
