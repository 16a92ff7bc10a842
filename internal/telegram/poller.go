package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Handler processes one update.
type Handler func(ctx context.Context, u Update)

// Poller drives a Handler from getUpdates.
//
// The offset advances past every received update before handlers finish,
// so a crash may lose in-flight work but never replays it twice from the
// same process. Handlers run concurrently, one goroutine per update.
type Poller struct {
	Client  *Client
	Timeout time.Duration
	Handler Handler

	// Backoff bounds the wait after a failed poll.
	MinBackoff, MaxBackoff time.Duration
}

// Run polls until ctx is cancelled, then waits for running handlers.
func (p *Poller) Run(ctx context.Context) error {
	minB, maxB := p.MinBackoff, p.MaxBackoff
	if minB <= 0 {
		minB = time.Second
	}
	if maxB < minB {
		maxB = 30 * time.Second
	}

	var (
		wg      sync.WaitGroup
		offset  int64
		backoff = minB
	)
	defer wg.Wait()

	for {
		ups, err := p.Client.GetUpdates(ctx, offset, p.Timeout)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Warn().Err(err).Dur("backoff", backoff).Msg("getUpdates failed")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil
			}
			backoff = min(backoff*2, maxB)
			continue
		}
		backoff = minB

		for _, u := range ups {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			wg.Add(1)
			go func(u Update) {
				defer wg.Done()
				p.Handler(ctx, u)
			}(u)
		}
	}
}

// maxUpdateBytes caps a webhook body.
const maxUpdateBytes = 1 << 20

// DecodeUpdate reads one webhook update.
func DecodeUpdate(r io.Reader) (Update, error) {
	var u Update
	dec := json.NewDecoder(io.LimitReader(r, maxUpdateBytes))
	if err := dec.Decode(&u); err != nil {
		return Update{}, fmt.Errorf("decode update: %w", err)
	}
	if u.UpdateID <= 0 {
		return Update{}, errors.New("decode update: missing update_id")
	}
	return u, nil
}
