package main

import (
	"time"

	"github.com/google/uuid"
)

// Severity levels for user-facing notifications
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

// Default notification durations
const (
	NotifyShort = 3 * time.Second
	NotifyLong  = 6 * time.Second
)

// Notification is an ephemeral user-facing message. Multiple may coexist;
// display order is insertion order but each expires independently.
type Notification struct {
	ID        string
	Message   string
	Severity  Severity
	CreatedAt time.Time
	Duration  time.Duration
}

// expiresAt is the instant the notification leaves the active set
func (n Notification) expiresAt() time.Time {
	return n.CreatedAt.Add(n.Duration)
}

// NotificationQueue holds the active notifications. It is independent of
// match logic; expiry happens lazily on read, so no timers need cancelling
// on teardown.
type NotificationQueue struct {
	items []Notification
	now   func() time.Time
}

// NewNotificationQueue creates an empty queue
func NewNotificationQueue() *NotificationQueue {
	return &NotificationQueue{now: time.Now}
}

// Push adds a notification with the given lifetime and returns it
func (q *NotificationQueue) Push(message string, sev Severity, d time.Duration) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  sev,
		CreatedAt: q.now(),
		Duration:  d,
	}
	q.items = append(q.items, n)
	return n
}

// Info pushes a short informational notification
func (q *NotificationQueue) Info(message string) Notification {
	return q.Push(message, SeverityInfo, NotifyShort)
}

// Active prunes expired notifications and returns the live ones in
// insertion order.
func (q *NotificationQueue) Active() []Notification {
	now := q.now()
	live := q.items[:0]
	for _, n := range q.items {
		if now.Before(n.expiresAt()) {
			live = append(live, n)
		}
	}
	q.items = live
	return append([]Notification(nil), live...)
}

// Len returns the number of currently active notifications
func (q *NotificationQueue) Len() int {
	return len(q.Active())
}

// Clear drops all notifications
func (q *NotificationQueue) Clear() {
	q.items = q.items[:0]
}
