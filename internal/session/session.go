// Package session holds the per-user state of the visualization engine: the
// active query, its step log, the latest result and the chart selection.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapviz/internal/backend"
	"github.com/leapstack-labs/leapviz/internal/selection"
	"github.com/leapstack-labs/leapviz/internal/stream"
	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/recommend"
	"github.com/leapstack-labs/leapviz/pkg/render"
	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// ErrUnknownChart is returned by Pick for types outside the selectable set.
var ErrUnknownChart = errors.New("unknown chart type")

// ErrSuperseded is returned by Run for a query that is no longer active.
var ErrSuperseded = errors.New("query superseded")

// Status is the lifecycle of the active query.
type Status string

// Query statuses.
const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Step is one progress line reported by the backend.
type Step struct {
	QueryID stream.QueryID `json:"queryId"`
	Text    string         `json:"text"`
	Node    string         `json:"node,omitempty"`
	At      time.Time      `json:"at"`
}

// Source starts an analysis stream. *backend.Client implements it.
type Source interface {
	Stream(ctx context.Context, question string) (<-chan backend.Event, error)
}

// Options configure new sessions.
type Options struct {
	Logger *slog.Logger
	// Repair runs viz.RepairKeys on every result before it is stored.
	Repair bool
	// OnChange is called after any state change, outside the session lock.
	OnChange func(id string)
}

// Session is the state of one user. All methods are safe for concurrent use.
type Session struct {
	id     string
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	lastID   stream.QueryID
	active   stream.QueryID
	terminal bool
	cancel   context.CancelFunc

	status   Status
	question string
	steps    []Step
	response *backend.Response
	result   *viz.Normalized
	errText  string
	updated  time.Time

	sel *selection.Machine
}

// New creates an idle session.
func New(id string, opts Options) (*Session, error) {
	sel, err := selection.New()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		id:      id,
		opts:    opts,
		logger:  logger.With("session", id),
		status:  StatusIdle,
		updated: time.Now(),
		sel:     sel,
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Begin starts a new query and returns its id. Everything belonging to the
// previous query is discarded and any stream still feeding it is cancelled.
func (s *Session) Begin(question string) stream.QueryID {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.lastID++
	s.active = s.lastID
	s.terminal = false
	s.status = StatusRunning
	s.question = question
	s.steps = nil
	s.response = nil
	s.result = nil
	s.errText = ""
	s.updated = time.Now()
	s.sel.Submit()
	id := s.active
	s.mu.Unlock()

	s.logger.Debug("query started", "query_id", id)
	s.changed()
	return id
}

// Apply applies a message to the session. Messages for a query other than
// the active one, or arriving after the active query's terminal message, are
// discarded and Apply returns false.
func (s *Session) Apply(m stream.Message) bool {
	s.mu.Lock()
	if m.QueryID != s.active || s.active == 0 || s.terminal {
		s.mu.Unlock()
		s.logger.Debug("discarding stale message", "query_id", m.QueryID, "kind", m.Kind)
		return false
	}

	s.updated = time.Now()
	switch m.Kind {
	case stream.KindStep:
		s.steps = append(s.steps, Step{QueryID: m.QueryID, Text: m.Text, Node: m.Node, At: s.updated})
	case stream.KindResult:
		s.adoptResult(m.Result)
	case stream.KindError:
		s.terminal = true
		s.status = StatusFailed
		s.errText = m.Text
		s.cancel = nil
	}
	s.mu.Unlock()

	s.changed()
	return true
}

// adoptResult replaces the result wholesale. Callers hold mu.
func (s *Session) adoptResult(resp *backend.Response) {
	s.terminal = true
	s.status = StatusDone
	s.cancel = nil
	if resp == nil {
		resp = &backend.Response{}
	}

	cfg := resp.VisualizationConfig
	if s.opts.Repair {
		cfg = viz.RepairKeys(cfg)
	}
	n := viz.Normalize(cfg)
	s.response = resp
	s.result = &n
	if len(resp.Steps) > len(s.steps) {
		for _, text := range resp.Steps[len(s.steps):] {
			s.steps = append(s.steps, Step{QueryID: s.active, Text: text, At: s.updated})
		}
	}
	s.sel.Result(n.Type, n.RecommendedCharts)
}

// Pick selects a chart for the current result.
func (s *Session) Pick(t chart.Type) error {
	if !chart.IsKnown(t) || t == chart.TypeError {
		return fmt.Errorf("%w: %q", ErrUnknownChart, t)
	}
	s.mu.Lock()
	s.sel.Pick(t)
	s.updated = time.Now()
	s.mu.Unlock()

	s.changed()
	return nil
}

// Ask begins question and runs it against src. See Run.
func (s *Session) Ask(ctx context.Context, src Source, question string) (stream.Message, error) {
	return s.Run(ctx, src, s.Begin(question), question)
}

// Run streams question from src for the query id returned by Begin and
// applies its events until the terminal message. Starting another query
// cancels this one. Run returns ErrSuperseded without contacting src when id
// is no longer the active query.
func (s *Session) Run(ctx context.Context, src Source, id stream.QueryID, question string) (stream.Message, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	if s.active != id || s.terminal {
		s.mu.Unlock()
		return stream.Message{}, ErrSuperseded
	}
	s.cancel = cancel
	s.mu.Unlock()

	events, err := src.Stream(ctx, question)
	if err != nil {
		m := stream.ErrorMessage(id, err)
		s.Apply(m)
		return m, nil
	}
	return stream.Consume(ctx, stream.Tagged(ctx, id, events), s)
}

// Touched returns the time of the last change.
func (s *Session) Touched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

// Close cancels any running query and stops the selection machine.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.sel.Stop()
}

func (s *Session) changed() {
	if s.opts.OnChange != nil {
		s.opts.OnChange(s.id)
	}
}

// Snapshot is a consistent copy of a session for rendering.
type Snapshot struct {
	ID        string          `json:"id"`
	QueryID   stream.QueryID  `json:"queryId"`
	Status    Status          `json:"status"`
	Question  string          `json:"question,omitempty"`
	Steps     []Step          `json:"steps,omitempty"`
	SQL       string          `json:"sql,omitempty"`
	Results   string          `json:"results,omitempty"`
	Error     string          `json:"error,omitempty"`
	Selection selection.State `json:"selection"`

	// The fields below are set once a result has arrived.
	HasResult   bool                `json:"hasResult"`
	Config      *viz.Normalized     `json:"config,omitempty"`
	Charts      []recommend.Entry   `json:"charts,omitempty"`
	Instruction *render.Instruction `json:"instruction,omitempty"`
	Table       *render.TableView   `json:"table,omitempty"`
}

// Snapshot returns the session's current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.id,
		QueryID:   s.active,
		Status:    s.status,
		Question:  s.question,
		Steps:     append([]Step(nil), s.steps...),
		Error:     s.errText,
		Selection: s.sel.State(),
	}
	if s.response != nil {
		snap.SQL = s.response.SQLQuery
		snap.Results = s.response.Results
	}
	if s.result == nil {
		return snap
	}

	n := *s.result
	in := render.Build(n, snap.Selection.Current)
	tbl := render.Table(n)
	snap.HasResult = true
	snap.Config = &n
	snap.Charts = recommend.RankRegistry(snap.Selection.Recommended)
	snap.Instruction = &in
	snap.Table = &tbl
	return snap
}
