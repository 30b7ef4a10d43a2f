// Package notify carries user-visible messages from the state layer to
// whatever renders them.
package notify

import (
	"context"
	"sync"
)

// Level is the severity shown to the user.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is one transient user-visible message.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(context.Context, Notification) {})

// Success is shorthand for a success-level notification.
func Success(msg string) Notification { return Notification{Level: LevelSuccess, Message: msg} }

// Error is shorthand for an error-level notification.
func Error(msg string) Notification { return Notification{Level: LevelError, Message: msg} }

// DefaultQueueSize bounds a Queue built with a non-positive size.
const DefaultQueueSize = 32

// Queue buffers notifications until they are drained. When full, the oldest
// entry is dropped so a session that is never read cannot grow without bound.
type Queue struct {
	mu    sync.Mutex
	items []Notification
	size  int
}

// NewQueue creates a queue holding at most size entries.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{size: size}
}

// Notify appends n, evicting the oldest entry when full.
func (q *Queue) Notify(_ context.Context, n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.size {
		q.items = q.items[1:]
	}
	q.items = append(q.items, n)
}

// Drain returns the buffered notifications in arrival order and empties the
// queue.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	return out
}

// Len reports the number of buffered notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
