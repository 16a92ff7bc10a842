package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-relay-bot/internal/domain"
	"github.com/tbourn/go-relay-bot/internal/observability"
)

// Outcome is the result of one delivery attempt.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeFailed    Outcome = "failed"
)

// Deliverer serves codes to requesters: it relays the original post
// without provenance, adds the expiry and promo notices and schedules all
// three for deletion.
type Deliverer struct {
	Registry  Lookuper
	Transport Transport
	Expiry    Expirer
	Texts     *Texts
}

// session tracks the messages one delivery has produced so far.
type session struct {
	id     string
	chatID int64
	ids    []int64
}

func (s *session) add(id int64) {
	if id > 0 {
		s.ids = append(s.ids, id)
	}
}

// Deliver resolves code for req and sends the post.
//
// Unknown codes get the not-found reply and nothing else. Any failure
// after the lookup gets one generic failure reply; messages already
// produced by this attempt are still scheduled for deletion.
func (d *Deliverer) Deliver(ctx context.Context, req domain.Request, code int64) Outcome {
	ctx, span := otel.Tracer("services/Deliverer").Start(ctx, "Deliver",
		trace.WithAttributes(attribute.Int64("post.code", code), attribute.Int64("chat.id", req.ChatID)),
	)
	defer span.End()

	sess := &session{id: uuid.NewString(), chatID: req.ChatID}
	logger := log.With().
		Str("session_id", sess.id).
		Int64("code", code).
		Int64("chat_id", req.ChatID).
		Logger()

	out := d.deliver(ctx, logger, req, code, sess)
	observability.Deliveries.WithLabelValues(string(out)).Inc()
	span.SetAttributes(attribute.String("delivery.outcome", string(out)))
	if out == OutcomeFailed {
		span.SetStatus(codes.Error, "delivery failed")
	}
	return out
}

func (d *Deliverer) deliver(ctx context.Context, logger zerolog.Logger, req domain.Request, code int64, sess *session) Outcome {
	res := d.Registry.Lookup(ctx, code)
	switch res.Status {
	case LookupNotFound:
		logger.Debug().Msg("code not found")
		if _, err := d.Transport.SendText(ctx, req.ChatID, d.Texts.NotFound(), req.MessageID); err != nil {
			logger.Warn().Err(err).Msg("not-found reply failed")
		}
		return OutcomeNotFound
	case LookupTransientError:
		logger.Error().Err(res.Err).Msg("registry lookup failed")
		d.fail(ctx, logger, req, sess)
		return OutcomeFailed
	}

	post := res.Post
	loc := post.Location()
	if loc.Resolve() == "" {
		logger.Error().Err(&FetchError{Code: code, Err: ErrEmptyRef}).Msg("post has no source location")
		d.fail(ctx, logger, req, sess)
		return OutcomeFailed
	}

	content, err := d.Transport.Fetch(ctx, loc, post.MessageID)
	if err == nil && content == nil {
		err = ErrNoContent
	}
	if err != nil {
		logger.Error().Err(&FetchError{Code: code, Err: err}).Msg("original post unavailable")
		d.fail(ctx, logger, req, sess)
		return OutcomeFailed
	}

	relayed, err := d.Transport.Relay(ctx, req.ChatID, content)
	if err != nil {
		logger.Error().Err(err).Msg("relay failed")
		d.fail(ctx, logger, req, sess)
		return OutcomeFailed
	}
	sess.add(relayed)

	for _, text := range []string{d.Texts.Delivered(int(DeliveryTTL.Seconds())), d.Texts.Promo()} {
		id, err := d.Transport.SendText(ctx, req.ChatID, text, req.MessageID)
		if err != nil {
			logger.Error().Err(err).Msg("delivery notice failed")
			d.fail(ctx, logger, req, sess)
			return OutcomeFailed
		}
		sess.add(id)
	}

	d.Expiry.ScheduleDelete(req.ChatID, sess.ids, DeliveryTTL)
	logger.Info().Ints64("message_ids", sess.ids).Msg("post delivered")
	return OutcomeDelivered
}

// fail sends the generic failure reply and expires whatever the session
// already produced.
func (d *Deliverer) fail(ctx context.Context, logger zerolog.Logger, req domain.Request, sess *session) {
	if _, err := d.Transport.SendText(ctx, req.ChatID, d.Texts.Failure(), req.MessageID); err != nil {
		logger.Warn().Err(err).Msg("failure reply failed")
	}
	if len(sess.ids) > 0 {
		d.Expiry.ScheduleDelete(req.ChatID, sess.ids, DeliveryTTL)
	}
}

// Help replies with the welcome text and expires the reply after HelpTTL.
func (d *Deliverer) Help(ctx context.Context, req domain.Request) {
	id, err := d.Transport.SendText(ctx, req.ChatID, d.Texts.Welcome(int(DeliveryTTL.Seconds())), req.MessageID)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", req.ChatID).Msg("welcome reply failed")
		return
	}
	if id > 0 {
		d.Expiry.ScheduleDelete(req.ChatID, []int64{id}, HelpTTL)
	}
}
