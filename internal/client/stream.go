package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"budgetwise/internal/backend"
	"budgetwise/internal/logger"
	"budgetwise/internal/models"
)

const (
	streamPath    = "/api/v1/stream"
	maxRetryDelay = 30 * time.Second
)

// sseEvent is one dispatched Server-Sent Event.
type sseEvent struct {
	name string
	data string
}

// stream is an open event stream. Reads go through r so bytes buffered
// while waiting for "ready" are not lost.
type stream struct {
	r    *bufio.Reader
	body io.Closer
}

// readEvents parses an SSE stream, calling fn per event until the stream
// ends or fn returns false.
func readEvents(r *bufio.Reader, fn func(sseEvent) bool) error {
	var ev sseEvent
	var data []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if ev.name != "" || len(data) > 0 {
				ev.data = strings.Join(data, "\n")
				if !fn(ev) {
					return nil
				}
			}
			ev, data = sseEvent{}, data[:0]
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}

// Subscribe implements backend.Backend. It returns once the server has
// acknowledged the stream. Dropped connections are re-established with
// backoff until ctx is done or the subscription is closed; events missed in
// between are recovered by the caller's next poll.
func (c *Client) Subscribe(ctx context.Context, ownerID string, h backend.Handler) (backend.Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)

	st, err := c.openStream(ctx, ownerID)
	if err != nil {
		cancel()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.consume(ctx, ownerID, st, h)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

// openStream connects and waits for the "ready" event.
func (c *Client) openStream(ctx context.Context, ownerID string) (*stream, error) {
	resp, err := c.send(ctx, c.streamClient, ownerID, http.MethodGet, streamPath, nil)
	if err != nil {
		return nil, fmt.Errorf("opening change stream: %w", err)
	}

	st := &stream{r: bufio.NewReader(resp.Body), body: resp.Body}
	ready := false
	err = readEvents(st.r, func(ev sseEvent) bool {
		ready = ev.name == "ready"
		return false
	})
	if !ready {
		_ = resp.Body.Close()
		if err == nil || errors.Is(err, io.EOF) {
			err = errors.New("stream closed before ready")
		}
		return nil, fmt.Errorf("opening change stream: %w", err)
	}
	return st, nil
}

// consume delivers events from st, reconnecting when it ends.
func (c *Client) consume(ctx context.Context, ownerID string, st *stream, h backend.Handler) {
	log := logger.Named("stream")
	delay := c.retryDelay

	for {
		err := readEvents(st.r, func(ev sseEvent) bool {
			if ev.name != "change" {
				return true
			}
			var change models.ChangeEvent
			if err := json.Unmarshal([]byte(ev.data), &change); err != nil {
				log.Warnw("skipping malformed change event", "error", err)
				return true
			}
			h(change)
			return ctx.Err() == nil
		})
		_ = st.body.Close()
		if ctx.Err() != nil {
			return
		}
		log.Warnw("change stream dropped", "owner_id", ownerID, "error", err)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			st, err = c.openStream(ctx, ownerID)
			if err == nil {
				delay = c.retryDelay
				break
			}
			if ctx.Err() != nil {
				return
			}
			log.Warnw("change stream reconnect failed", "owner_id", ownerID, "error", err, "retry_in", delay)
			delay *= 2
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
		}
	}
}
