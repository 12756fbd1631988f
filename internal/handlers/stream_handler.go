package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"budgetwise/internal/logger"
	"budgetwise/internal/models"
)

// Subscriber is the part of the change feed the stream endpoint needs.
type Subscriber interface {
	Subscribe(ownerID string) (<-chan models.ChangeEvent, func())
}

// StreamHandler pushes committed changes to connected clients over
// Server-Sent Events.
type StreamHandler struct {
	feed      Subscriber
	keepAlive time.Duration
}

// NewStreamHandler creates a StreamHandler. keepAlive <= 0 disables comments
// sent to keep idle proxies from closing the connection.
func NewStreamHandler(feed Subscriber, keepAlive time.Duration) *StreamHandler {
	return &StreamHandler{feed: feed, keepAlive: keepAlive}
}

// Stream sends a "ready" event once subscribed, then one "change" event per
// committed row change owned by the caller, until the client disconnects.
// @Summary     Subscribe to changes
// @Tags        stream
// @Produce     text/event-stream
// @Security    BearerAuth
// @Success     200 {object} models.ChangeEvent "Stream of change events"
// @Router      /stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	events, cancel := h.feed.Subscribe(ownerID)
	defer cancel()

	log := logger.Named("stream")
	log.Debugw("subscriber connected", "owner_id", ownerID)
	defer log.Debugw("subscriber disconnected", "owner_id", ownerID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"owner_id": ownerID})
	c.Writer.Flush()

	var tick <-chan time.Time
	if h.keepAlive > 0 {
		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()
		tick = ticker.C
	}

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("change", ev)
			return true
		case <-tick:
			_, _ = io.WriteString(w, ": keep-alive\n\n")
			return true
		}
	})
}
