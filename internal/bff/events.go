package bff

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/logger"
)

// ItemEvent is one item event received from GET /api/events
type ItemEvent struct {
	ID        string                  `json:"id"`
	Type      string                  `json:"type"`
	Timestamp int64                   `json:"timestamp"`
	Payload   domain.ItemEventPayload `json:"payload"`
}

// EventStream keeps a connection to the BFF event stream open, reconnecting with
// exponential backoff, and delivers item events on a channel.
type EventStream struct {
	client     *Client
	eventTypes []string
	httpClient *http.Client
	log        *slog.Logger

	mu        sync.RWMutex
	connected bool
}

// Events creates an event stream for the given event types (all item events when empty)
func (c *Client) Events(eventTypes ...string) *EventStream {
	return &EventStream{
		client:     c,
		eventTypes: eventTypes,
		// No timeout for SSE connections
		httpClient: &http.Client{Transport: c.http.Transport},
		log:        logger.Component("event_stream"),
	}
}

// IsConnected returns true while the stream is connected
func (s *EventStream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Run connects and delivers events until ctx is cancelled. The returned channel is
// closed when Run stops. Events are dropped when the consumer falls behind.
func (s *EventStream) Run(ctx context.Context) <-chan ItemEvent {
	out := make(chan ItemEvent, sseEventsBuffer)
	go s.connectLoop(ctx, out)
	return out
}

func (s *EventStream) connectLoop(ctx context.Context, out chan<- ItemEvent) {
	defer close(out)

	backoff := sseInitialBackoff
	consecutiveFailures := 0

	for {
		if ctx.Err() != nil {
			s.log.Info(logMsgSSEStopped)
			return
		}

		err := s.connect(ctx, out)
		s.setConnected(false)
		if ctx.Err() != nil {
			s.log.Info(logMsgSSEStopped)
			return
		}

		if err != nil {
			consecutiveFailures++
			s.log.Warn(logMsgSSEConnectionFailed,
				"error", err,
				"backoff", backoff,
				"consecutive_failures", consecutiveFailures)
		}

		select {
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * sseBackoffMultiplier)
			if backoff > sseMaxBackoff {
				backoff = sseMaxBackoff
			}
		case <-ctx.Done():
			s.log.Info(logMsgSSEStopped)
			return
		}
	}
}

func (s *EventStream) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *EventStream) connect(ctx context.Context, out chan<- ItemEvent) error {
	url := s.client.baseURL + PathEvents
	if len(s.eventTypes) > 0 {
		url += "?types=" + strings.Join(s.eventTypes, ",")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if err := s.client.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	s.setConnected(true)
	s.log.Info(logMsgSSEConnected, "url", url)

	return s.readEvents(ctx, resp.Body, out)
}

func (s *EventStream) readEvents(ctx context.Context, body io.Reader, out chan<- ItemEvent) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, sseBufferSize), sseBufferSize)

	var eventID, eventType, data string

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Text()
		if line == "" {
			// blank line terminates an event
			if data != "" {
				s.dispatch(eventID, eventType, data, out)
			}
			eventID, eventType, data = "", "", ""
			continue
		}

		switch {
		case strings.HasPrefix(line, "id: "):
			eventID = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading stream: %w", err)
	}
	return fmt.Errorf("stream closed unexpectedly")
}

func (s *EventStream) dispatch(id, eventType, data string, out chan<- ItemEvent) {
	if eventType == sseEventKeepalive || eventType == sseEventConnected {
		return
	}

	var evt ItemEvent
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		s.log.Warn(logMsgSSEParseError, "error", err)
		return
	}
	if eventType != "" {
		evt.Type = eventType
	}
	if id != "" {
		evt.ID = id
	}

	select {
	case out <- evt:
	default:
		s.log.Warn(logMsgSSEDropped, "event_type", evt.Type)
	}
}
