// Package notify carries options-changed signals from the form-builder
// backend to running sessions: an in-process Broadcaster for fan-out plus a
// websocket Listener that feeds it from the backend's broadcast endpoint.
package notify

import "sync"

// Signal marks a change to a form's configuration. Sessions subscribed to
// the form should reload their schema and option sets.
type Signal struct {
	FormID string `json:"formId"`
	Kind   string `json:"kind,omitempty"`
}

// Broadcaster fans signals out to subscribers. Delivery is best-effort: a
// subscriber that has fallen behind drops the signal rather than blocking
// the publisher. A dropped signal is harmless since any later reload picks
// up the same state.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]subscription
}

type subscription struct {
	formID string
	ch     chan Signal
}

// NewBroadcaster constructs an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: map[int]subscription{}}
}

// Subscribe registers interest in one form's signals. An empty formID
// subscribes to every form. The returned cancel func releases the
// subscription and closes the channel.
func (b *Broadcaster) Subscribe(formID string) (<-chan Signal, func()) {
	ch := make(chan Signal, 4)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = subscription{formID: formID, ch: ch}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		sub, ok := b.subs[id]
		delete(b.subs, id)
		b.mu.Unlock()
		if ok {
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Publish delivers a signal to every matching subscriber.
func (b *Broadcaster) Publish(sig Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.formID != "" && sub.formID != sig.FormID {
			continue
		}
		select {
		case sub.ch <- sig:
		default:
		}
	}
}
