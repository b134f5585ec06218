package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// EventType is the kind of a streamed analysis event.
type EventType string

// Event types. Exactly one result or error ends a stream.
const (
	EventStep   EventType = "step"
	EventResult EventType = "result"
	EventError  EventType = "error"
)

// Event is one decoded server-sent event from /analyze/stream.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
	Node string          `json:"node,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventResult || e.Type == EventError
}

// Text returns the data as a string. Step and error events carry a JSON
// string; anything else is returned verbatim.
func (e Event) Text() string {
	var s string
	if err := json.Unmarshal(e.Data, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(e.Data))
}

// Response decodes the data of a result event.
func (e Event) Response() (*Response, error) {
	if e.Type != EventResult {
		return nil, fmt.Errorf("event type %q carries no result", e.Type)
	}
	var r Response
	if err := json.Unmarshal(e.Data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &r, nil
}

// errorEvent builds a terminal error event from a message.
func errorEvent(msg string) Event {
	data, _ := json.Marshal(msg)
	return Event{Type: EventError, Data: data}
}

// Stream starts an analysis and returns its events in arrival order. The
// channel is closed after the terminal event, after a transport failure
// (reported as an error event), or when ctx is done. A stream that ends
// without a terminal event is closed without one.
func (c *Client) Stream(ctx context.Context, question string) (<-chan Event, error) {
	body, err := questionBody(question)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	resp, err := c.send(ctx, http.MethodPost, "/analyze/stream", body, "text/event-stream")
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stream: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer cancel()
		defer close(out)
		defer func() { _ = resp.Body.Close() }()

		err := readEvents(resp.Body, func(ev Event) bool {
			select {
			case out <- ev:
			case <-ctx.Done():
				return false
			}
			return !ev.Terminal()
		})
		if err == nil || ctx.Err() != nil {
			return
		}
		c.logger.Warn("analysis stream failed", "error", err)
		select {
		case out <- errorEvent(err.Error()):
		case <-ctx.Done():
		}
	}()
	return out, nil
}

// errStop ends readEvents early without being reported.
var errStop = errors.New("stop")

// readEvents parses a text/event-stream body and calls emit for every
// decoded data payload until emit returns false or the body ends. Comment
// lines and fields other than data are ignored; multi-line data fields are
// joined with newlines.
func readEvents(r io.Reader, emit func(Event) bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var data bytes.Buffer
	dispatch := func() error {
		if data.Len() == 0 {
			return nil
		}
		payload := bytes.TrimSpace(data.Bytes())
		data.Reset()
		if len(payload) == 0 {
			return nil
		}
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("malformed event %q: %w", truncate(string(payload), 80), err)
		}
		if !emit(ev) {
			return errStop
		}
		return nil
	}

	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		switch {
		case line == "":
			if err := dispatch(); err != nil {
				return stopIsNil(err)
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			v := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(v)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return stopIsNil(dispatch())
}

func stopIsNil(err error) error {
	if errors.Is(err, errStop) {
		return nil
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
