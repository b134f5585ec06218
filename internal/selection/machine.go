// Package selection tracks which chart is shown for the active result: the
// AI default when a result arrives, then whatever the user picks.
package selection

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/statekit"

	"github.com/leapstack-labs/leapviz/pkg/chart"
)

// Phase is the selection's position in its lifecycle.
type Phase string

// Phases.
const (
	PhaseUnset        Phase = "unset"
	PhaseAIDefault    Phase = "ai_default"
	PhaseUserOverride Phase = "user_override"
)

// Events.
const (
	EventSubmit statekit.EventType = "SUBMIT"
	EventResult statekit.EventType = "RESULT"
	EventPick   statekit.EventType = "PICK"
)

const (
	stateUnset        = statekit.StateID(PhaseUnset)
	stateAIDefault    = statekit.StateID(PhaseAIDefault)
	stateUserOverride = statekit.StateID(PhaseUserOverride)
)

// State is a snapshot of the selection.
type State struct {
	Phase       Phase        `json:"phase"`
	AIDefault   chart.Type   `json:"aiDefault,omitempty"`
	Current     chart.Type   `json:"current,omitempty"`
	Recommended []chart.Type `json:"recommended,omitempty"`
}

// HasSelection reports whether a chart is currently selected.
func (s State) HasSelection() bool { return s.Phase != PhaseUnset }

// Context is the statechart's extended state.
type Context struct {
	AIDefault   chart.Type
	Current     chart.Type
	Recommended []chart.Type
}

// ResultPayload accompanies EventResult.
type ResultPayload struct {
	Type        chart.Type
	Recommended []chart.Type
}

// NewSelectionMachine builds the selection statechart. Every event is
// accepted in every state; only RESULT leads to ai_default.
func NewSelectionMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("selection").
		WithInitial(stateUnset).
		WithContext(&Context{}).
		WithAction("clear", clearSelection).
		WithAction("adoptResult", adoptResult).
		WithAction("pick", pickChart).
		State(stateUnset).
			On(EventSubmit).Target(stateUnset).Do("clear").
			On(EventResult).Target(stateAIDefault).Do("adoptResult").
			On(EventPick).Target(stateUserOverride).Do("pick").
			Done().
		State(stateAIDefault).
			On(EventSubmit).Target(stateUnset).Do("clear").
			On(EventResult).Target(stateAIDefault).Do("adoptResult").
			On(EventPick).Target(stateUserOverride).Do("pick").
			Done().
		State(stateUserOverride).
			On(EventSubmit).Target(stateUnset).Do("clear").
			On(EventResult).Target(stateAIDefault).Do("adoptResult").
			On(EventPick).Target(stateUserOverride).Do("pick").
			Done().
		Build()
}

func clearSelection(ctx **Context, _ statekit.Event) {
	c := *ctx
	c.AIDefault = ""
	c.Current = ""
	c.Recommended = nil
}

func adoptResult(ctx **Context, e statekit.Event) {
	p, _ := e.Payload.(ResultPayload)
	current := p.Type
	if len(p.Recommended) > 0 {
		current = p.Recommended[0]
	}
	c := *ctx
	c.AIDefault = current
	c.Current = current
	c.Recommended = append([]chart.Type(nil), p.Recommended...)
}

func pickChart(ctx **Context, e statekit.Event) {
	t, _ := e.Payload.(chart.Type)
	(*ctx).Current = t
}

// Machine is a running selection statechart. It is safe for concurrent use.
type Machine struct {
	mu     sync.Mutex
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// New starts a selection machine in the unset phase.
func New() (*Machine, error) {
	cfg, err := NewSelectionMachine()
	if err != nil {
		return nil, fmt.Errorf("failed to build selection machine: %w", err)
	}
	ctx := &Context{}
	interp := statekit.NewInterpreter(cfg)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	interp.Start()
	return &Machine{interp: interp, ctx: ctx}, nil
}

// Submit clears the selection for a newly submitted query.
func (m *Machine) Submit() {
	m.send(statekit.Event{Type: EventSubmit})
}

// Result replaces the selection with the AI default for a new result:
// recommended[0], or typ when nothing was recommended.
func (m *Machine) Result(typ chart.Type, recommended []chart.Type) {
	m.send(statekit.Event{Type: EventResult, Payload: ResultPayload{
		Type:        typ,
		Recommended: append([]chart.Type(nil), recommended...),
	}})
}

// Pick records a user choice.
func (m *Machine) Pick(t chart.Type) {
	m.send(statekit.Event{Type: EventPick, Payload: t})
}

// State returns a copy of the current selection.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return State{
		Phase:       Phase(m.interp.State().Value),
		AIDefault:   m.ctx.AIDefault,
		Current:     m.ctx.Current,
		Recommended: append([]chart.Type(nil), m.ctx.Recommended...),
	}
}

// Stop halts the interpreter.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interp.Stop()
}

func (m *Machine) send(e statekit.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interp.Send(e)
}
