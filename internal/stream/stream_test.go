package stream

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapviz/internal/backend"
	"github.com/leapstack-labs/leapviz/pkg/chart"
)

type recorder struct {
	got []Message
}

func (r *recorder) Apply(m Message) bool {
	r.got = append(r.got, m)
	return true
}

func event(typ backend.EventType, data string, node string) backend.Event {
	return backend.Event{Type: typ, Data: json.RawMessage(data), Node: node}
}

func feed(events ...backend.Event) <-chan backend.Event {
	ch := make(chan backend.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func TestTag(t *testing.T) {
	step := Tag(7, event(backend.EventStep, `"Writing SQL"`, "sql_architect"))
	assert.Equal(t, Message{QueryID: 7, Kind: KindStep, Text: "Writing SQL", Node: "sql_architect"}, step)
	assert.False(t, step.Terminal())

	res := Tag(7, event(backend.EventResult, `{"question":"q","visualization_config":{"type":"line"}}`, ""))
	require.Equal(t, KindResult, res.Kind)
	require.NotNil(t, res.Result)
	assert.Equal(t, chart.TypeLine, res.Result.VisualizationConfig.Type)
	assert.True(t, res.Terminal())

	bad := Tag(7, event(backend.EventResult, `"not an object"`, ""))
	assert.Equal(t, KindError, bad.Kind)
	assert.NotEmpty(t, bad.Text)

	errMsg := Tag(7, event(backend.EventError, `"boom"`, ""))
	assert.Equal(t, KindError, errMsg.Kind)
	assert.Equal(t, "boom", errMsg.Text)
}

func TestConsume_InOrderUntilTerminal(t *testing.T) {
	ctx := context.Background()
	msgs := Tagged(ctx, 3, feed(
		event(backend.EventStep, `"one"`, "a"),
		event(backend.EventStep, `"two"`, "b"),
		event(backend.EventError, `"failed"`, ""),
		event(backend.EventStep, `"ignored"`, "c"),
	))

	rec := &recorder{}
	last, err := Consume(ctx, msgs, rec)
	require.NoError(t, err)

	require.Len(t, rec.got, 3)
	assert.Equal(t, "one", rec.got[0].Text)
	assert.Equal(t, "two", rec.got[1].Text)
	assert.Equal(t, KindError, last.Kind)
	assert.Equal(t, "failed", last.Text)
	for _, m := range rec.got {
		assert.Equal(t, QueryID(3), m.QueryID)
	}
}

func TestTagged_EarlyCloseBecomesError(t *testing.T) {
	ctx := context.Background()
	msgs := Tagged(ctx, 1, feed(event(backend.EventStep, `"one"`, "")))

	rec := &recorder{}
	last, err := Consume(ctx, msgs, rec)
	require.NoError(t, err)
	assert.Equal(t, KindError, last.Kind)
	assert.Equal(t, ErrStreamClosed.Error(), last.Text)
	assert.Len(t, rec.got, 2)
}

func TestConsume_ClosedWithoutTerminal(t *testing.T) {
	ch := make(chan Message, 1)
	ch <- Message{QueryID: 1, Kind: KindStep, Text: "one"}
	close(ch)

	rec := &recorder{}
	_, err := Consume(context.Background(), ch, rec)
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.Len(t, rec.got, 1)
}

func TestConsume_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Consume(ctx, make(chan Message), &recorder{})
	assert.ErrorIs(t, err, context.Canceled)
}
