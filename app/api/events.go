package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/feeddesk/feeddesk/app/database"
	"github.com/feeddesk/feeddesk/app/scheduler"
)

// Event is one scheduler occurrence kept for the status API.
type Event struct {
	Type      string    `json:"type"`
	Feed      string    `json:"feed,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Offline   bool      `json:"offline,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventLog is a bounded, newest-first log of scheduler events. It is the
// in-repo consumer of the poller's event fan-out and backs the /events
// endpoint.
type EventLog struct {
	mu     sync.Mutex
	max    int
	events []Event
}

var _ scheduler.Events = (*EventLog)(nil)

func NewEventLog(max int) *EventLog {
	return &EventLog{max: max}
}

func (l *EventLog) record(e Event) {
	e.Timestamp = time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append([]Event{e}, l.events...)
	if len(l.events) > l.max {
		l.events = l.events[:l.max]
	}
}

// Recent returns the retained events, newest first.
func (l *EventLog) Recent() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func (l *EventLog) FeedAdded(title, url, latestHTML string, updatedAt time.Time) {
	l.record(Event{Type: "feed_added", Feed: title, Detail: url})
}

func (l *EventLog) FeedUpdated(title, latestHTML string, updatedAt time.Time, link string) {
	l.record(Event{Type: "feed_updated", Feed: title, Detail: link})
}

func (l *EventLog) FeedRemoved(title string) {
	l.record(Event{Type: "feed_removed", Feed: title})
}

func (l *EventLog) FeedRenamed(oldTitle, newTitle string) {
	l.record(Event{Type: "feed_renamed", Feed: oldTitle, Detail: newTitle})
}

func (l *EventLog) EntriesPopulated(title string, entries []database.Entry) {
	l.record(Event{Type: "entries_populated", Feed: title, Detail: fmt.Sprintf("%d entries", len(entries))})
}

func (l *EventLog) FeedError(title, url string, err error, offline bool) {
	l.record(Event{Type: "feed_error", Feed: title, Detail: err.Error(), Offline: offline})
}
