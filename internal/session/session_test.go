package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapviz/internal/backend"
	"github.com/leapstack-labs/leapviz/internal/selection"
	"github.com/leapstack-labs/leapviz/internal/stream"
	"github.com/leapstack-labs/leapviz/internal/testutil"
	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/render"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := New("test", Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func resultMsg(id stream.QueryID, typ chart.Type, recommended ...chart.Type) stream.Message {
	return stream.Message{
		QueryID: id,
		Kind:    stream.KindResult,
		Result: &backend.Response{
			Question: "q",
			SQLQuery: "SELECT region, sales FROM t",
			VisualizationConfig: viz.Config{
				Type:              typ,
				Title:             "Sales",
				XKey:              "region",
				YKey:              viz.Key("sales"),
				Data:              json.RawMessage(`[{"region":"North","sales":10},{"region":"South","sales":4}]`),
				RecommendedCharts: recommended,
			},
		},
	}
}

func TestSession_ResultAdoptsAIDefault(t *testing.T) {
	s := newSession(t)
	id := s.Begin("sales by region")

	assert.True(t, s.Apply(stream.Message{QueryID: id, Kind: stream.KindStep, Text: "Writing SQL", Node: "sql"}))
	assert.True(t, s.Apply(resultMsg(id, chart.TypeBar, chart.TypePie, chart.TypeBar)))

	snap := s.Snapshot()
	assert.Equal(t, StatusDone, snap.Status)
	assert.Equal(t, selection.PhaseAIDefault, snap.Selection.Phase)
	assert.Equal(t, chart.TypePie, snap.Selection.Current)
	require.True(t, snap.HasResult)
	require.NotNil(t, snap.Instruction)
	assert.Equal(t, render.KindChart, snap.Instruction.Kind)
	assert.Equal(t, chart.TypePie, snap.Instruction.Type)
	assert.Equal(t, "SELECT region, sales FROM t", snap.SQL)
	require.Len(t, snap.Steps, 1)
	assert.Equal(t, "Writing SQL", snap.Steps[0].Text)

	require.NotEmpty(t, snap.Charts)
	assert.Equal(t, chart.TypeBar, snap.Charts[0].Value)
	assert.True(t, snap.Charts[0].Recommended)
	assert.Equal(t, chart.TypePie, snap.Charts[1].Value)
	assert.True(t, snap.Charts[1].AIPick)
}

func TestSession_DiscardsStaleMessages(t *testing.T) {
	logger, logs := testutil.NewRecordingLogger(t)
	s, err := New("test", Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	first := s.Begin("first")
	second := s.Begin("second")
	require.Greater(t, second, first)

	assert.False(t, s.Apply(resultMsg(first, chart.TypeLine)))
	assert.False(t, s.Apply(stream.Message{QueryID: first, Kind: stream.KindStep, Text: "late"}))

	snap := s.Snapshot()
	assert.Equal(t, StatusRunning, snap.Status)
	assert.False(t, snap.HasResult)
	assert.Empty(t, snap.Steps)
	assert.Equal(t, selection.PhaseUnset, snap.Selection.Phase)

	assert.True(t, s.Apply(resultMsg(second, chart.TypeArea)))
	assert.Equal(t, chart.TypeArea, s.Snapshot().Selection.Current)

	var stale int
	for _, e := range logs.Entries() {
		if e.Message == "discarding stale message" {
			stale++
			assert.EqualValues(t, first, e.Attrs["query_id"])
		}
	}
	assert.Equal(t, 2, stale)
}

func TestSession_DiscardsStaleAfterNewerCompletes(t *testing.T) {
	s := newSession(t)
	first := s.Begin("first")
	second := s.Begin("second")

	require.True(t, s.Apply(resultMsg(second, chart.TypeBar, chart.TypeBar, chart.TypeLine)))
	require.NoError(t, s.Pick(chart.TypePie))
	want := s.Snapshot()
	require.Equal(t, StatusDone, want.Status)
	require.Equal(t, selection.PhaseUserOverride, want.Selection.Phase)

	late := []stream.Message{
		{QueryID: first, Kind: stream.KindStep, Text: "late step"},
		resultMsg(first, chart.TypeRadar, chart.TypeRadar),
		{QueryID: first, Kind: stream.KindError, Text: "late failure"},
	}
	for _, m := range late {
		assert.False(t, s.Apply(m), "kind %s", m.Kind)
	}

	got := s.Snapshot()
	assert.Equal(t, StatusDone, got.Status)
	assert.Empty(t, got.Error)
	assert.Equal(t, second, got.QueryID)
	assert.Equal(t, want.Selection, got.Selection)
	assert.Equal(t, want.Config, got.Config)
	assert.Equal(t, want.Instruction, got.Instruction)
	assert.Equal(t, want.Steps, got.Steps)
}

func TestSession_DiscardsAfterTerminal(t *testing.T) {
	s := newSession(t)
	id := s.Begin("q")

	assert.True(t, s.Apply(stream.Message{QueryID: id, Kind: stream.KindError, Text: "boom"}))
	assert.False(t, s.Apply(resultMsg(id, chart.TypeBar)))

	snap := s.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "boom", snap.Error)
	assert.False(t, snap.HasResult)
}

func TestSession_NoActiveQuery(t *testing.T) {
	s := newSession(t)
	assert.False(t, s.Apply(stream.Message{QueryID: 0, Kind: stream.KindStep}))
	assert.Equal(t, StatusIdle, s.Snapshot().Status)
}

func TestSession_PickThenNewResultResets(t *testing.T) {
	s := newSession(t)
	id := s.Begin("q")
	s.Apply(resultMsg(id, chart.TypeBar, chart.TypeLine))

	require.NoError(t, s.Pick(chart.TypeFunnel))
	require.NoError(t, s.Pick(chart.TypeTable))
	snap := s.Snapshot()
	assert.Equal(t, selection.PhaseUserOverride, snap.Selection.Phase)
	assert.Equal(t, chart.TypeTable, snap.Selection.Current)
	assert.Equal(t, render.KindTable, snap.Instruction.Kind)

	id = s.Begin("again")
	s.Apply(resultMsg(id, chart.TypeBar, chart.TypeWaterfall))
	snap = s.Snapshot()
	assert.Equal(t, selection.PhaseAIDefault, snap.Selection.Phase)
	assert.Equal(t, chart.TypeWaterfall, snap.Selection.Current)
}

func TestSession_PickRejectsUnknown(t *testing.T) {
	s := newSession(t)
	id := s.Begin("q")
	s.Apply(resultMsg(id, chart.TypeBar))

	for _, typ := range []chart.Type{"heatmap", "", chart.TypeError} {
		err := s.Pick(typ)
		assert.ErrorIs(t, err, ErrUnknownChart)
	}
	assert.Equal(t, chart.TypeBar, s.Snapshot().Selection.Current)
}

func TestSession_ErrorConfigDoesNotLeak(t *testing.T) {
	s := newSession(t)
	id := s.Begin("q")
	msg := resultMsg(id, chart.TypeError)
	msg.Result.VisualizationConfig.Message = "could not run query"
	s.Apply(msg)

	snap := s.Snapshot()
	require.NotNil(t, snap.Instruction)
	assert.Equal(t, render.KindMessage, snap.Instruction.Kind)
	assert.Equal(t, "could not run query", snap.Instruction.Message)

	id = s.Begin("next")
	s.Apply(resultMsg(id, chart.TypeBar, chart.TypeBar))
	snap = s.Snapshot()
	assert.Equal(t, chart.TypeBar, snap.Selection.Current)
	assert.Equal(t, render.KindChart, snap.Instruction.Kind)
}

func TestSession_RepairOption(t *testing.T) {
	s, err := New("repair", Options{Repair: true})
	require.NoError(t, err)
	defer s.Close()

	id := s.Begin("q")
	msg := resultMsg(id, chart.TypeBar)
	msg.Result.VisualizationConfig.XKey = "customer_name"
	s.Apply(msg)

	snap := s.Snapshot()
	require.NotNil(t, snap.Config)
	assert.Equal(t, "region", snap.Config.XKey)
}

func TestSession_OnChange(t *testing.T) {
	var calls atomic.Int32
	s, err := New("notify", Options{OnChange: func(id string) {
		assert.Equal(t, "notify", id)
		calls.Add(1)
	}})
	require.NoError(t, err)
	defer s.Close()

	id := s.Begin("q")
	s.Apply(resultMsg(id, chart.TypeBar))
	s.Apply(resultMsg(id, chart.TypeBar))
	require.NoError(t, s.Pick(chart.TypeLine))

	assert.Equal(t, int32(3), calls.Load())
}

type fakeSource struct {
	events []backend.Event
	err    error
}

func (f fakeSource) Stream(ctx context.Context, question string) (<-chan backend.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan backend.Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func TestSession_Ask(t *testing.T) {
	s := newSession(t)
	src := fakeSource{events: []backend.Event{
		{Type: backend.EventStep, Data: json.RawMessage(`"Writing SQL"`), Node: "sql"},
		{Type: backend.EventResult, Data: json.RawMessage(`{"question":"q","sql_query":"SELECT 1","visualization_config":{"type":"pie","xKey":"k","yKey":"v","data":[{"k":"a","v":1}]},"steps":["Writing SQL","Rendering chart"]}`)},
	}}

	last, err := s.Ask(context.Background(), src, "q")
	require.NoError(t, err)
	assert.Equal(t, stream.KindResult, last.Kind)

	snap := s.Snapshot()
	assert.Equal(t, StatusDone, snap.Status)
	assert.Equal(t, chart.TypePie, snap.Selection.Current)
	require.Len(t, snap.Steps, 2)
	assert.Equal(t, "Rendering chart", snap.Steps[1].Text)
}

func TestSession_AskSourceError(t *testing.T) {
	s := newSession(t)
	last, err := s.Ask(context.Background(), fakeSource{err: errors.New("connection refused")}, "q")
	require.NoError(t, err)
	assert.Equal(t, stream.KindError, last.Kind)

	snap := s.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "connection refused", snap.Error)
}

func TestSession_RunUsesBegunQuery(t *testing.T) {
	s := newSession(t)
	src := fakeSource{events: []backend.Event{
		{Type: backend.EventResult, Data: json.RawMessage(`{"question":"q","visualization_config":{"type":"bar","xKey":"k","yKey":"v","data":[{"k":"a","v":1}]}}`)},
	}}

	id := s.Begin("q")
	last, err := s.Run(context.Background(), src, id, "q")
	require.NoError(t, err)
	assert.Equal(t, id, last.QueryID)

	snap := s.Snapshot()
	assert.Equal(t, id, snap.QueryID)
	assert.Equal(t, StatusDone, snap.Status)
}

func TestSession_RunSuperseded(t *testing.T) {
	s := newSession(t)
	old := s.Begin("old")
	s.Begin("new")

	_, err := s.Run(context.Background(), fakeSource{err: errors.New("unreachable")}, old, "old")
	assert.ErrorIs(t, err, ErrSuperseded)

	snap := s.Snapshot()
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, "new", snap.Question)
	assert.Empty(t, snap.Error)
}

func TestSession_ConcurrentApplyAndSnapshot(t *testing.T) {
	s := newSession(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id := s.Begin("q")
			s.Apply(stream.Message{QueryID: id, Kind: stream.KindStep, Text: "step"})
			s.Apply(resultMsg(id, chart.TypeBar))
		}()
		go func() {
			defer wg.Done()
			snap := s.Snapshot()
			if snap.HasResult {
				assert.NotNil(t, snap.Instruction)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, stream.QueryID(8), s.Snapshot().QueryID)
}

func TestStore(t *testing.T) {
	st := NewStore(Options{})

	a, err := st.GetOrCreate("a")
	require.NoError(t, err)
	again, err := st.GetOrCreate("a")
	require.NoError(t, err)
	assert.Same(t, a, again)

	_, err = st.GetOrCreate("b")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Len())

	_, ok := st.Get("missing")
	assert.False(t, ok)

	st.Delete("b")
	assert.Equal(t, 1, st.Len())

	assert.Zero(t, st.Prune(time.Now(), time.Hour))
	assert.Equal(t, 1, st.Prune(time.Now().Add(2*time.Hour), time.Hour))
	assert.Zero(t, st.Len())
}
