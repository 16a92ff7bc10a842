package services

import (
	"context"
	"time"

	"github.com/tbourn/go-relay-bot/internal/domain"
)

// Transport is the chat platform as seen by the services. Every method is a
// suspension point and may fail independently.
type Transport interface {
	// SendText sends text to chatID, optionally as a reply (replyTo > 0),
	// and returns the new message id.
	SendText(ctx context.Context, chatID int64, text string, replyTo int64) (int64, error)

	// Forward forwards a message with visible provenance. Used for the
	// operator only.
	Forward(ctx context.Context, toChatID int64, from domain.Location, messageID int64) (int64, error)

	// Fetch resolves the original post. A nil Content with a nil error
	// means the post yields nothing.
	Fetch(ctx context.Context, from domain.Location, messageID int64) (*domain.Content, error)

	// Relay sends content to chatID as a new message without a forward
	// header and returns the new message id.
	Relay(ctx context.Context, toChatID int64, c *domain.Content) (int64, error)

	// Delete removes messages from chatID in one call.
	Delete(ctx context.Context, chatID int64, ids []int64) error

	// Username resolves the bot's own username.
	Username(ctx context.Context) (string, error)
}

// Deleter is the part of the transport the expiry scheduler needs.
type Deleter interface {
	Delete(ctx context.Context, chatID int64, ids []int64) error
}

// Expirer schedules the removal of messages after a delay. Implementations
// must not block the caller.
type Expirer interface {
	ScheduleDelete(chatID int64, ids []int64, delay time.Duration)
}

// Allocator hands out unique codes.
type Allocator interface {
	Next(ctx context.Context) (int64, error)
}

// Recorder persists post records.
type Recorder interface {
	Put(ctx context.Context, p *domain.Post) error
}

// Lookuper resolves codes to post records.
type Lookuper interface {
	Lookup(ctx context.Context, code int64) LookupResult
}

// NameSource returns the bot's display name for deep links.
type NameSource interface {
	Get(ctx context.Context) string
}
