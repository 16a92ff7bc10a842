// Package telegram is a small Bot API client: the calls the relay bot
// needs, outbound pacing, long polling and webhook decoding.
//
// Requests are JSON bodies posted to <base>/bot<token>/<method>.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

const maxFloodRetries = 2

// Client calls the Bot API. It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another Bot API server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit paces outbound calls to rps with the given burst. rps <= 0
// disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New returns a client for token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 75 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// call posts params to method and decodes the result into out (may be nil).
// Flood-control responses are retried after the advertised delay.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	ctx, span := otel.Tracer("telegram/Client").Start(ctx, method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("telegram.method", method)),
	)
	defer span.End()

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("telegram %s: encode: %w", method, err)
	}

	for attempt := 0; ; attempt++ {
		err = c.do(ctx, method, body, out)
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Code != 429 || attempt >= maxFloodRetries {
			if err != nil {
				span.RecordError(err)
			}
			return err
		}
		wait := apiErr.RetryAfter
		if wait <= 0 {
			wait = time.Second
		}
		log.Warn().Str("method", method).Dur("retry_after", wait).Msg("telegram flood control")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) do(ctx context.Context, method string, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	url := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The URL carries the token; report the method only.
		return fmt.Errorf("telegram %s: transport error: %w", method, unwrapURLError(err))
	}
	defer resp.Body.Close()

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("telegram %s: decode (status %d): %w", method, resp.StatusCode, err)
	}
	if !r.OK {
		apiErr := &APIError{Method: method, Code: r.ErrorCode, Description: r.Description}
		if r.Parameters != nil {
			apiErr.RetryAfter = time.Duration(r.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}
	if out == nil || len(r.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

func unwrapURLError(err error) error {
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok && u.Unwrap() != nil {
		return u.Unwrap()
	}
	return err
}

// ---- Bot API methods ----

// SendMessage sends text, optionally as a reply.
func (c *Client) SendMessage(ctx context.Context, chat ChatRef, text string, replyTo int64) (*Message, error) {
	params := map[string]any{
		"chat_id":                  chat,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	if replyTo > 0 {
		params["reply_parameters"] = map[string]any{
			"message_id":                  replyTo,
			"allow_sending_without_reply": true,
		}
	}
	var m Message
	if err := c.call(ctx, "sendMessage", params, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// CopyMessage copies a message without a link to the original.
func (c *Client) CopyMessage(ctx context.Context, to, from ChatRef, messageID int64) (int64, error) {
	var ref MessageRef
	err := c.call(ctx, "copyMessage", map[string]any{
		"chat_id":      to,
		"from_chat_id": from,
		"message_id":   messageID,
	}, &ref)
	return ref.MessageID, err
}

// ForwardMessage forwards a message with its forward header.
func (c *Client) ForwardMessage(ctx context.Context, to, from ChatRef, messageID int64) (*Message, error) {
	var m Message
	if err := c.call(ctx, "forwardMessage", map[string]any{
		"chat_id":      to,
		"from_chat_id": from,
		"message_id":   messageID,
	}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMessages removes up to 100 messages from chat in one call.
func (c *Client) DeleteMessages(ctx context.Context, chat ChatRef, ids []int64) error {
	return c.call(ctx, "deleteMessages", map[string]any{
		"chat_id":     chat,
		"message_ids": ids,
	}, nil)
}

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, "getMe", struct{}{}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUpdates long-polls for updates with id >= offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	var ups []Update
	err := c.call(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "channel_post"},
	}, &ups)
	return ups, err
}

// SetWebhook registers url; secret is echoed back in
// X-Telegram-Bot-Api-Secret-Token on every call.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	params := map[string]any{
		"url":             url,
		"allowed_updates": []string{"message", "channel_post"},
	}
	if secret != "" {
		params["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", params, nil)
}

// DeleteWebhook switches the bot back to getUpdates.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]any{"drop_pending_updates": false}, nil)
}
