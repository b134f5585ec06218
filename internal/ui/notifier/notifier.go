// Package notifier fans out change pings to SSE listeners, one topic per
// browser session.
package notifier

import "sync"

// Notifier pings listeners when a topic changes. Listeners receive an empty
// struct and should re-read the session snapshot.
type Notifier struct {
	mu     sync.RWMutex
	topics map[string]map[chan struct{}]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		topics: make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives pings for topic.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe(topic string) chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	listeners, ok := n.topics[topic]
	if !ok {
		listeners = make(map[chan struct{}]struct{})
		n.topics[topic] = listeners
	}
	listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(topic string, ch chan struct{}) {
	n.mu.Lock()
	if listeners, ok := n.topics[topic]; ok {
		delete(listeners, ch)
		if len(listeners) == 0 {
			delete(n.topics, topic)
		}
	}
	n.mu.Unlock()
	close(ch)
}

// Publish pings every listener of topic.
// Non-blocking: a listener that already has a ping pending is skipped.
func (n *Notifier) Publish(topic string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.topics[topic] {
		ping(ch)
	}
}

// Broadcast pings every listener of every topic.
func (n *Notifier) Broadcast() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, listeners := range n.topics {
		for ch := range listeners {
			ping(ch)
		}
	}
}

// Listeners returns the number of listeners on topic.
func (n *Notifier) Listeners(topic string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.topics[topic])
}

func ping(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
