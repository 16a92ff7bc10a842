package telegram

import (
	"context"
	"fmt"

	"github.com/tbourn/go-relay-bot/internal/domain"
)

// deleteBatch is the deleteMessages per-call limit.
const deleteBatch = 100

// Transport adapts Client to the operations the relay services use.
type Transport struct {
	Client *Client
}

// NewTransport wraps c.
func NewTransport(c *Client) *Transport { return &Transport{Client: c} }

func (t *Transport) SendText(ctx context.Context, chatID int64, text string, replyTo int64) (int64, error) {
	m, err := t.Client.SendMessage(ctx, ChatID(chatID), text, replyTo)
	if err != nil {
		return 0, err
	}
	return m.MessageID, nil
}

func (t *Transport) Forward(ctx context.Context, toChatID int64, from domain.Location, messageID int64) (int64, error) {
	src, err := locationRef(from)
	if err != nil {
		return 0, err
	}
	m, err := t.Client.ForwardMessage(ctx, ChatID(toChatID), src, messageID)
	if err != nil {
		return 0, err
	}
	return m.MessageID, nil
}

// Fetch resolves the original post. Bots cannot read channel history, so
// the result is a reference that Relay copies server-side; a missing or
// inaccessible post surfaces as a Relay error.
func (t *Transport) Fetch(_ context.Context, from domain.Location, messageID int64) (*domain.Content, error) {
	if _, err := locationRef(from); err != nil {
		return nil, err
	}
	if messageID <= 0 {
		return nil, fmt.Errorf("telegram: invalid message id %d", messageID)
	}
	return &domain.Content{Source: from, MessageID: messageID}, nil
}

// Relay copies c to toChatID with no forward header.
func (t *Transport) Relay(ctx context.Context, toChatID int64, c *domain.Content) (int64, error) {
	src, err := locationRef(c.Source)
	if err != nil {
		return 0, err
	}
	return t.Client.CopyMessage(ctx, ChatID(toChatID), src, c.MessageID)
}

// Delete removes ids from chatID, batching past the per-call limit. Every
// batch is attempted; the first error is returned.
func (t *Transport) Delete(ctx context.Context, chatID int64, ids []int64) error {
	var first error
	for start := 0; start < len(ids); start += deleteBatch {
		end := min(start+deleteBatch, len(ids))
		if err := t.Client.DeleteMessages(ctx, ChatID(chatID), ids[start:end]); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Username returns the bot's @username without the leading '@'.
func (t *Transport) Username(ctx context.Context) (string, error) {
	u, err := t.Client.GetMe(ctx)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func locationRef(l domain.Location) (ChatRef, error) {
	ref := l.Resolve()
	if ref == "" {
		return "", ErrNoLocation
	}
	return ChatRef(ref), nil
}
