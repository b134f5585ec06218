// Package stream turns backend analysis events into messages tagged with the
// query they belong to, and applies them to a consumer in arrival order.
package stream

import (
	"context"
	"errors"

	"github.com/leapstack-labs/leapviz/internal/backend"
)

// QueryID identifies one submitted question within a session. IDs increase
// monotonically; zero means no query.
type QueryID uint64

// Kind is the kind of a message.
type Kind string

// Message kinds. Result and error are terminal.
const (
	KindStep   Kind = "step"
	KindResult Kind = "result"
	KindError  Kind = "error"
)

// ErrStreamClosed is reported when the event source ends before delivering
// a result or an error.
var ErrStreamClosed = errors.New("analysis stream closed before a result arrived")

// Message is a backend event tagged with its query.
type Message struct {
	QueryID QueryID
	Kind    Kind
	// Text is the step description or error message.
	Text   string
	Node   string
	Result *backend.Response
}

// Terminal reports whether m ends its query.
func (m Message) Terminal() bool {
	return m.Kind == KindResult || m.Kind == KindError
}

// Applier receives messages in order. Apply reports whether the message was
// accepted; stale messages are refused.
type Applier interface {
	Apply(Message) bool
}

// Tag converts a backend event into a message for query id. A result whose
// payload cannot be decoded becomes an error message.
func Tag(id QueryID, ev backend.Event) Message {
	m := Message{QueryID: id, Node: ev.Node}
	switch ev.Type {
	case backend.EventResult:
		resp, err := ev.Response()
		if err != nil {
			m.Kind = KindError
			m.Text = err.Error()
			return m
		}
		m.Kind = KindResult
		m.Result = resp
	case backend.EventError:
		m.Kind = KindError
		m.Text = ev.Text()
	default:
		m.Kind = KindStep
		m.Text = ev.Text()
	}
	return m
}

// ErrorMessage builds a terminal error message for query id.
func ErrorMessage(id QueryID, err error) Message {
	return Message{QueryID: id, Kind: KindError, Text: err.Error()}
}

// Tagged forwards events as messages for query id. The returned channel
// always ends with exactly one terminal message unless ctx is done first:
// if the source closes early, an ErrStreamClosed error message is sent.
func Tagged(ctx context.Context, id QueryID, events <-chan backend.Event) <-chan Message {
	out := make(chan Message)
	go func() {
		defer close(out)
		send := func(m Message) bool {
			select {
			case out <- m:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					send(ErrorMessage(id, ErrStreamClosed))
					return
				}
				m := Tag(id, ev)
				if !send(m) || m.Terminal() {
					return
				}
			}
		}
	}()
	return out
}

// Consume is the single reader of msgs. It applies every message to a in
// arrival order and returns the terminal message. It returns ErrStreamClosed
// if msgs closes without one, or ctx.Err() when ctx is done first.
func Consume(ctx context.Context, msgs <-chan Message, a Applier) (Message, error) {
	for {
		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case m, ok := <-msgs:
			if !ok {
				return Message{}, ErrStreamClosed
			}
			a.Apply(m)
			if m.Terminal() {
				return m, nil
			}
		}
	}
}
