package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapviz/pkg/chart"
)

func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("stream did not close")
			return nil
		}
	}
}

func sseServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze/stream", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, f := range frames {
			_, _ = fmt.Fprint(w, f)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
}

func TestStream_StepsThenResult(t *testing.T) {
	srv := sseServer(t,
		": ping\r\n\r\n",
		"data: {\"type\": \"step\", \"data\": \"Writing SQL...\", \"node\": \"sql_architect\"}\r\n\r\n",
		"event: message\ndata: {\"type\": \"step\", \"data\": \"Executing...\", \"node\": \"executor\"}\n\n",
		"data: {\"type\": \"result\", \"data\": {\"question\": \"q\", \"sql_query\": \"SELECT 1\",\n",
		"data: \"visualization_config\": {\"type\": \"pie\", \"data\": []}, \"steps\": []}}\n\n",
		"data: {\"type\": \"step\", \"data\": \"after terminal\"}\n\n",
	)
	defer srv.Close()

	ch, err := newTestClient(t, srv.URL).Stream(context.Background(), "q")
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 3)

	assert.Equal(t, EventStep, events[0].Type)
	assert.Equal(t, "Writing SQL...", events[0].Text())
	assert.Equal(t, "sql_architect", events[0].Node)
	assert.False(t, events[0].Terminal())

	assert.Equal(t, "executor", events[1].Node)

	require.True(t, events[2].Terminal())
	resp, err := events[2].Response()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", resp.SQLQuery)
	assert.Equal(t, chart.TypePie, resp.VisualizationConfig.Type)
}

func TestStream_ErrorEvent(t *testing.T) {
	srv := sseServer(t, `data: {"type": "error", "data": "relation \"x\" does not exist"}`)
	defer srv.Close()

	ch, err := newTestClient(t, srv.URL).Stream(context.Background(), "q")
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Equal(t, `relation "x" does not exist`, events[0].Text())

	_, err = events[0].Response()
	assert.Error(t, err)
}

func TestStream_ClosesWithoutTerminal(t *testing.T) {
	srv := sseServer(t, "data: {\"type\": \"step\", \"data\": \"one\"}\n\n")
	defer srv.Close()

	ch, err := newTestClient(t, srv.URL).Stream(context.Background(), "q")
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 1)
	assert.Equal(t, EventStep, events[0].Type)
}

func TestStream_MalformedPayloadBecomesError(t *testing.T) {
	srv := sseServer(t, "data: {\"type\": \"step\", \"data\": \"ok\"}\n\n", "data: not json\n\n")
	defer srv.Close()

	ch, err := newTestClient(t, srv.URL).Stream(context.Background(), "q")
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 2)
	assert.Equal(t, EventError, events[1].Type)
	assert.Contains(t, events[1].Text(), "malformed event")
}

func TestStream_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Question cannot be empty"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Stream(context.Background(), "q")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Question cannot be empty", se.Detail)
}

func TestStream_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = fmt.Fprint(w, "data: {\"type\": \"step\", \"data\": \"one\"}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := newTestClient(t, srv.URL).Stream(ctx, "q")
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, "one", first.Text())
	cancel()

	for ev := range ch {
		assert.NotEqual(t, EventResult, ev.Type)
	}
}

func TestReadEvents_StopsWhenEmitDeclines(t *testing.T) {
	body := strings.Repeat("data: {\"type\": \"step\", \"data\": \"x\"}\n\n", 5)
	n := 0
	err := readEvents(strings.NewReader(body), func(Event) bool {
		n++
		return n < 2
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
