package scheduler

import (
	"time"

	"github.com/feeddesk/feeddesk/app/database"
)

// Events is the boundary to the widget/UI layer. The poller never calls into
// rendering logic beyond these callbacks; consumers must return promptly.
type Events interface {
	FeedAdded(title, url, latestHTML string, updatedAt time.Time)
	FeedUpdated(title, latestHTML string, updatedAt time.Time, link string)
	FeedRemoved(title string)
	FeedRenamed(oldTitle, newTitle string)
	EntriesPopulated(title string, entries []database.Entry)
	FeedError(title, url string, err error, offline bool)
}

// Notifier is the desktop notification sink. Delivery is fire-and-forget;
// implementations must not block and must swallow their own failures.
type Notifier interface {
	Notify(title, htmlBody string)
	NotifyError(title, message string)
}

// PollerInterface is the control surface exposed to the API layer.
type PollerInterface interface {
	Start()
	Stop()

	AddFeed(url, category string) error
	RemoveFeed(title string) error
	RenameFeed(oldTitle, newTitle string) (string, error)
	SetFeedActive(title string, active bool) error
	SetFeedCategory(title, category string) error
	SetFeedSortReversed(title string, reversed bool) error

	Suspend() error
	Resume() error
	RefreshNow() error

	Stats() (Stats, error)
}
