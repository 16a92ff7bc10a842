// Package handlers provides the ops server's HTTP handlers.
//
// This file holds the read-only registry views for operators:
//   - GET /posts/{code}  (single record)
//   - GET /stats         (post count, highest code, next code)
//   - GET /health        (store reachability)
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-relay-bot/internal/services"
	"github.com/tbourn/go-relay-bot/internal/utils"
)

// PostView is the JSON shape of a registry record.
type PostView struct {
	Code       int64      `json:"code"`
	ChannelRef string     `json:"channel_ref"`
	ChannelID  *int64     `json:"channel_id,omitempty"`
	MessageID  int64      `json:"message_id"`
	Timestamp  string     `json:"timestamp"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// GetPost handles GET /posts/:code. The code accepts the same digit forms
// as bot requests.
func (h *Handlers) GetPost(c *gin.Context) {
	code, valid := utils.ParseCode(c.Param("code"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "code must be a decimal number")
		return
	}

	res := h.registry.Lookup(c.Request.Context(), code)
	switch res.Status {
	case services.LookupNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "code not found")
		return
	case services.LookupTransientError:
		fail(c, http.StatusInternalServerError, ErrCodeLookupFailed, "registry lookup failed")
		return
	}

	p := res.Post
	view := PostView{
		Code:       p.PostID,
		ChannelRef: p.ChannelRef,
		ChannelID:  p.ChannelID,
		MessageID:  p.MessageID,
		Timestamp:  p.Timestamp,
	}
	if at, parsed := p.RecordedAt(); parsed {
		view.RecordedAt = &at
	}
	ok(c, http.StatusOK, view)
}

// GetStats handles GET /stats.
func (h *Handlers) GetStats(c *gin.Context) {
	s, err := h.stats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "stats unavailable")
		return
	}
	ok(c, http.StatusOK, s)
}

// Health handles GET /health: 200 when the store answers within two
// seconds, 503 otherwise.
func (h *Handlers) Health(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "store unreachable")
			return
		}
	}
	ok(c, http.StatusOK, gin.H{"status": "ok"})
}
