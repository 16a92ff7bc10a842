package services

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// NameCache memoizes the bot's own username for deep links.
//
// Resolution happens lazily under a mutex. Only a successful, non-empty
// result is cached; after a failure Fallback is returned and the next Get
// tries again.
type NameCache struct {
	Resolve  func(ctx context.Context) (string, error)
	Fallback string

	mu   sync.Mutex
	name string
}

// NewNameCache returns a cache that resolves through resolve and falls back
// to fallback.
func NewNameCache(resolve func(ctx context.Context) (string, error), fallback string) *NameCache {
	return &NameCache{Resolve: resolve, Fallback: fallback}
}

// Get returns the cached name, resolving it first when needed.
func (c *NameCache) Get(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.name != "" {
		return c.name
	}
	if c.Resolve == nil {
		return c.Fallback
	}
	name, err := c.Resolve(ctx)
	name = strings.TrimPrefix(strings.TrimSpace(name), "@")
	if err != nil || name == "" {
		log.Debug().Err(err).Str("fallback", c.Fallback).Msg("bot username unresolved")
		return c.Fallback
	}
	c.name = name
	return name
}
