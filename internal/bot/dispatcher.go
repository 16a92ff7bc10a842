// Package bot routes inbound updates to the relay services.
//
// Source-channel posts go to ingestion. Private messages that are a start
// command or a bare code go to delivery, behind a per-requester throttle.
// Everything else is ignored. Each actionable update id is claimed once so
// a redelivered update is not acted on twice.
package bot

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-relay-bot/internal/domain"
	"github.com/tbourn/go-relay-bot/internal/observability"
	"github.com/tbourn/go-relay-bot/internal/repo"
	"github.com/tbourn/go-relay-bot/internal/services"
	"github.com/tbourn/go-relay-bot/internal/telegram"
	"github.com/tbourn/go-relay-bot/internal/utils"
)

// startRe matches "/start", "/start@BotName" and an optional payload.
var startRe = regexp.MustCompile(`^/start(?:@\w+)?(?:\s+(\S+))?\s*$`)

// Ingester is the ingestion side of the services.
type Ingester interface {
	Ingest(ctx context.Context, post domain.ChannelPost) (int64, error)
}

// Delivery is the requester side of the services.
type Delivery interface {
	Deliver(ctx context.Context, req domain.Request, code int64) services.Outcome
	Help(ctx context.Context, req domain.Request)
}

// Claimer marks an update id as handled; a repeat claim returns
// repo.ErrDuplicate.
type Claimer interface {
	Claim(ctx context.Context, updateID int64, kind string) error
}

// Limiter is a per-key throttle.
type Limiter interface {
	Allow(key string) bool
}

// Source identifies the watched channel by @username or numeric id.
type Source struct {
	Username string
	ID       int64
}

// ParseSource reads a SOURCE_CHANNEL value.
func ParseSource(ref string) Source {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return Source{ID: id}
	}
	return Source{Username: strings.TrimPrefix(ref, "@")}
}

// Matches reports whether chat is the source channel.
func (s Source) Matches(chat telegram.Chat) bool {
	if s.ID != 0 {
		return chat.ID == s.ID
	}
	return s.Username != "" && strings.EqualFold(chat.Username, s.Username)
}

// Dispatcher classifies updates and hands them to the services. Claims and
// Throttle are optional.
type Dispatcher struct {
	Ingestor Ingester
	Delivery Delivery
	Source   Source
	Claims   Claimer
	Throttle Limiter
}

// Handle processes one update. It never panics on malformed input and
// never returns an error: every failure is handled and logged here.
func (d *Dispatcher) Handle(ctx context.Context, u telegram.Update) {
	kind := d.handle(ctx, u)
	observability.Updates.WithLabelValues(kind).Inc()
}

func (d *Dispatcher) handle(ctx context.Context, u telegram.Update) string {
	switch {
	case u.ChannelPost != nil:
		return d.channelPost(ctx, u.UpdateID, u.ChannelPost)
	case u.Message != nil:
		return d.message(ctx, u.UpdateID, u.Message)
	}
	return "ignored"
}

func (d *Dispatcher) channelPost(ctx context.Context, updateID int64, m *telegram.Message) string {
	if !d.Source.Matches(m.Chat) {
		return "ignored"
	}
	if !d.claim(ctx, updateID, "channel_post") {
		return "duplicate"
	}

	_, err := d.Ingestor.Ingest(ctx, domain.ChannelPost{
		UpdateID:  updateID,
		ChatID:    m.Chat.ID,
		Username:  m.Chat.Username,
		MessageID: m.MessageID,
		Service:   m.IsService(),
	})
	switch {
	case errors.Is(err, services.ErrIneligible):
		log.Debug().Int64("update_id", updateID).Int64("message_id", m.MessageID).Msg("service event ignored")
		return "service"
	case err != nil:
		return "ingest_failed"
	}
	return "ingest"
}

func (d *Dispatcher) message(ctx context.Context, updateID int64, m *telegram.Message) string {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return "ignored"
	}

	var (
		code    int64
		hasCode bool
		kind    string
	)
	if sm := startRe.FindStringSubmatch(text); sm != nil {
		kind = "start"
		code, hasCode = utils.ParseCode(sm[1])
	} else if c, ok := utils.ParseCode(text); ok {
		kind, code, hasCode = "code", c, true
	} else {
		return "ignored"
	}

	if d.Throttle != nil && !d.Throttle.Allow("chat:"+strconv.FormatInt(m.Chat.ID, 10)) {
		observability.Throttled.Inc()
		log.Debug().Int64("chat_id", m.Chat.ID).Msg("request throttled")
		return "throttled"
	}
	if !d.claim(ctx, updateID, kind) {
		return "duplicate"
	}

	req := domain.Request{UpdateID: updateID, ChatID: m.Chat.ID, MessageID: m.MessageID, Text: text}
	if !hasCode {
		d.Delivery.Help(ctx, req)
		return "help"
	}
	d.Delivery.Deliver(ctx, req, code)
	return kind
}

// claim reports whether the update should be processed. Store failures
// let the update through.
func (d *Dispatcher) claim(ctx context.Context, updateID int64, kind string) bool {
	if d.Claims == nil || updateID <= 0 {
		return true
	}
	err := d.Claims.Claim(ctx, updateID, kind)
	switch {
	case err == nil:
		return true
	case errors.Is(err, repo.ErrDuplicate):
		log.Info().Int64("update_id", updateID).Str("kind", kind).Msg("redelivered update skipped")
		return false
	default:
		log.Warn().Err(err).Int64("update_id", updateID).Msg("update claim failed; processing anyway")
		return true
	}
}
