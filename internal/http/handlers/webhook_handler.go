package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-relay-bot/internal/http/middleware"
	"github.com/tbourn/go-relay-bot/internal/telegram"
)

// Webhook handles POST from Telegram. The update is acknowledged at once
// and processed off the request goroutine; Telegram retries non-2xx
// replies, so only undecodable bodies are rejected. Drain waits for the
// processing started here.
func (h *Handlers) Webhook(c *gin.Context) {
	u, err := telegram.DecodeUpdate(c.Request.Body)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("webhook body rejected")
		fail(c, http.StatusBadRequest, ErrCodeBadUpdate, "malformed update")
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	h.dispatch(func() { h.updates.Handle(ctx, u) })
	c.Status(http.StatusOK)
}
