package stream

import (
	"fmt"
	"sync"
)

// Notification is the UI-facing side effect of a stream delta.
// Kind is "new", "updated", or "summary" for a batched flush.
type Notification struct {
	EventID string
	Title   string
	Kind    string
	Count   int // populated for summary notifications
}

// KindSummary is emitted when more than maxIndividualFlush notifications
// were buffered while the consumer was hidden.
const KindSummary = "summary"

// maxIndividualFlush is the largest buffered batch still flushed as
// individual notifications; anything bigger collapses to one summary.
const maxIndividualFlush = 5

// Notifier delivers notifications over a channel, decoupling the merge
// logic from whatever renders them. While the consumer is hidden,
// notifications buffer and are flushed as a batch the moment the
// consumer becomes visible again.
type Notifier struct {
	mu      sync.Mutex
	visible bool
	buffer  []Notification
	out     chan Notification
}

// NewNotifier creates a notifier. The consumer starts visible.
func NewNotifier(capacity int) *Notifier {
	if capacity <= 0 {
		capacity = 64
	}
	return &Notifier{
		visible: true,
		out:     make(chan Notification, capacity),
	}
}

// Channel is the consumer's notification feed.
func (n *Notifier) Channel() <-chan Notification {
	return n.out
}

// Notify emits a notification immediately when visible, or buffers it
// while hidden.
func (n *Notifier) Notify(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.visible {
		n.buffer = append(n.buffer, note)
		return
	}
	n.emit(note)
}

// SetVisible updates the consumer's visibility. Regaining visibility
// flushes the buffer: individually when small, as a single summary
// otherwise.
func (n *Notifier) SetVisible(visible bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	wasVisible := n.visible
	n.visible = visible
	if visible == wasVisible || !visible {
		return
	}

	buffered := n.buffer
	n.buffer = nil

	if len(buffered) <= maxIndividualFlush {
		for _, note := range buffered {
			n.emit(note)
		}
		return
	}
	n.emit(Notification{
		Kind:  KindSummary,
		Title: fmt.Sprintf("%d new events", len(buffered)),
		Count: len(buffered),
	})
}

// Pending returns the number of buffered notifications.
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.buffer)
}

// emit pushes to the channel without blocking; a full channel drops the
// oldest notification first so the feed stays current. Caller holds n.mu.
func (n *Notifier) emit(note Notification) {
	for {
		select {
		case n.out <- note:
			return
		default:
			select {
			case <-n.out:
			default:
			}
		}
	}
}
