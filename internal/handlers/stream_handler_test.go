package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"budgetwise/internal/changefeed"
	"budgetwise/internal/models"
)

// readEvent returns the next SSE event name and data payload.
func readEvent(t *testing.T, sc *bufio.Scanner) (string, string) {
	t.Helper()
	var name, data string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if name != "" || data != "" {
				return name, data
			}
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return "", ""
}

func TestStreamHandler_Stream(t *testing.T) {
	hub := changefeed.NewHub(8)
	r := gin.New()
	r.GET("/stream", injectOwnerID(testOwner), NewStreamHandler(hub, 0).Stream)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	if name, _ := readEvent(t, sc); name != "ready" {
		t.Fatalf("expected ready event, got %q", name)
	}

	hub.Publish(models.ChangeEvent{Table: models.TableTransactions, Kind: models.ChangeDelete, OwnerID: "someone-else", ID: "x"})
	hub.Publish(models.ChangeEvent{Table: models.TableTransactions, Kind: models.ChangeDelete, OwnerID: testOwner, ID: "tx-1"})

	name, data := readEvent(t, sc)
	if name != "change" {
		t.Fatalf("expected change event, got %q", name)
	}
	var ev models.ChangeEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if ev.ID != "tx-1" || ev.OwnerID != testOwner {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestStreamHandler_RequiresOwner(t *testing.T) {
	r := gin.New()
	r.GET("/stream", NewStreamHandler(changefeed.NewHub(1), 0).Stream)

	rec := doRequest(r, "GET", "/stream", "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
