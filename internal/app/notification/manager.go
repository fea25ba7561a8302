// Package notification provides the notification manager for broadcasting
// session updates to display subscribers.
package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osa030/pomobox/internal/domain/phase"
)

// Type identifies what changed in the session.
type Type int

const (
	TypeTick            Type = iota // Countdown advanced
	TypeStateChanged                // Started or stopped
	TypePhaseCompleted              // A phase ran out and the next one was entered
	TypeSessionFinished             // All iterations are done
	TypeSettingsChanged             // Durations or iteration count changed
)

// String returns the string representation of the notification type.
func (t Type) String() string {
	switch t {
	case TypeTick:
		return "tick"
	case TypeStateChanged:
		return "state_changed"
	case TypePhaseCompleted:
		return "phase_completed"
	case TypeSessionFinished:
		return "session_finished"
	case TypeSettingsChanged:
		return "settings_changed"
	default:
		return "unknown"
	}
}

// Status is the read-only view of a session that displays render.
type Status struct {
	Running         bool
	Finished        bool
	TimeLeft        int64
	Phase           phase.Phase
	Iteration       uint8
	TotalIterations uint8
	TotalTime       int64
	TotalElapsed    int64
}

// Progress returns TotalElapsed / TotalTime clamped to [0, 1].
func (s Status) Progress() float64 {
	if s.TotalTime <= 0 {
		return 0
	}
	p := float64(s.TotalElapsed) / float64(s.TotalTime)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// Notification is one session update.
type Notification struct {
	SequenceNo uint64
	SessionID  string
	Type       Type
	Status     Status
	At         time.Time
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id      string
	ch      chan Notification
	dropped uint64
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	closed        bool
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a new subscription and returns its ID and receive channel.
// The channel is closed by Unsubscribe or Close.
func (m *Manager) Subscribe(buffer int) (string, <-chan Notification) {
	if buffer <= 0 {
		buffer = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan Notification, buffer)
	if m.closed {
		close(ch)
		return id, ch
	}
	m.subscriptions[id] = &subscription{
		id: id,
		ch: ch,
	}
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub, ok := m.subscriptions[subscriptionID]; ok {
		close(sub.ch)
		delete(m.subscriptions, subscriptionID)
	}
}

// Broadcast stamps a sequence number and delivers the notification to every
// subscriber without blocking. A subscriber whose buffer is full misses it.
// Returns the sequence number assigned.
func (m *Manager) Broadcast(n Notification) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0
	}

	m.sequenceNo++
	n.SequenceNo = m.sequenceNo
	if n.At.IsZero() {
		n.At = time.Now()
	}

	// Sends happen under the lock so every subscriber sees sequence order.
	for _, sub := range m.subscriptions {
		select {
		case sub.ch <- n:
		default:
			sub.dropped++
		}
	}
	return n.SequenceNo
}

// Dropped returns how many notifications a subscriber has missed.
func (m *Manager) Dropped(subscriptionID string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if sub, ok := m.subscriptions[subscriptionID]; ok {
		return sub.dropped
	}
	return 0
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes every subscription channel. Later broadcasts are ignored.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	for id, sub := range m.subscriptions {
		close(sub.ch)
		delete(m.subscriptions, id)
	}
}
