package scheduler

import (
	"time"

	"github.com/feeddesk/feeddesk/app/database"
)

var _ Events = (Fanout)(nil)

// Fanout dispatches every event to each registered consumer in order.
type Fanout []Events

func (f Fanout) FeedAdded(title, url, latestHTML string, updatedAt time.Time) {
	for _, e := range f {
		e.FeedAdded(title, url, latestHTML, updatedAt)
	}
}

func (f Fanout) FeedUpdated(title, latestHTML string, updatedAt time.Time, link string) {
	for _, e := range f {
		e.FeedUpdated(title, latestHTML, updatedAt, link)
	}
}

func (f Fanout) FeedRemoved(title string) {
	for _, e := range f {
		e.FeedRemoved(title)
	}
}

func (f Fanout) FeedRenamed(oldTitle, newTitle string) {
	for _, e := range f {
		e.FeedRenamed(oldTitle, newTitle)
	}
}

func (f Fanout) EntriesPopulated(title string, entries []database.Entry) {
	for _, e := range f {
		e.EntriesPopulated(title, entries)
	}
}

func (f Fanout) FeedError(title, url string, err error, offline bool) {
	for _, e := range f {
		e.FeedError(title, url, err, offline)
	}
}
