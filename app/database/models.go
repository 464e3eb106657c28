package database

import (
	"time"
)

// Feed is the durable per-subscription record. Title is the unique key;
// duplicate titles are disambiguated with a "~#N" suffix on insert and rename.
type Feed struct {
	ID            int64
	Title         string
	URL           string
	Active        bool
	Category      string
	LastUpdated   time.Time // minute resolution, UTC; zero when never updated
	SortReversed  bool
	LatestSummary string
	LatestLink    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Entry is one cached feed entry. Entries are ordered newest-first by
// ascending position; ordering reflects insertion, not a re-sort on load.
type Entry struct {
	ID          int64
	FeedID      int64
	Title       string
	PublishedAt time.Time
	Summary     string
	Link        string
	Position    int
}
