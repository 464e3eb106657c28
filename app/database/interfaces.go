package database

import (
	"time"
)

type FeedRepository interface {
	GetByTitle(title string) (*Feed, error)
	GetByURL(url string) (*Feed, error)
	GetAll() ([]Feed, error)
	GetActive() ([]Feed, error)
	GetCount() (int, error)
	GetActiveCount() (int, error)

	// Create inserts a new record, disambiguating the title when taken.
	// The returned record carries the final title.
	Create(title, url, category string, active bool) (*Feed, error)

	UpdateLatest(id int64, lastUpdated time.Time, latestSummary, latestLink string) error
	SetActive(id int64, active bool) error
	SetCategory(id int64, category string) error
	SetSortReversed(id int64, reversed bool) error

	// Rename changes the record's title, disambiguating collisions the same
	// way Create does, and returns the final title.
	Rename(id int64, newTitle string) (string, error)

	Delete(id int64) error
}

type EntryRepository interface {
	GetEntries(feedID int64, limit int) ([]Entry, error)
	GetCount(feedID int64) (int, error)
	HasEntries(feedID int64) (bool, error)

	// Populate replaces the feed's cache with the given entries, newest first.
	Populate(feedID int64, entries []Entry) error

	// Prepend inserts entries ahead of the current newest, preserving the
	// given newest-first order.
	Prepend(feedID int64, entries []Entry) error

	// Prune drops the oldest entries beyond keep.
	Prune(feedID int64, keep int) error
}
