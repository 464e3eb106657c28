package scheduler

import (
	"time"

	"github.com/feeddesk/feeddesk/app/database"
	"github.com/feeddesk/feeddesk/app/feed"
)

// Outcome classifies a successful fetch against the stored record.
type Outcome int

const (
	// OutcomeUnchanged means the feed's newest timestamp is equal to or older
	// than the stored one. Nothing is mutated.
	OutcomeUnchanged Outcome = iota
	// OutcomeUpdated means strictly newer content was detected and the record
	// and entry cache were mutated.
	OutcomeUpdated
)

// Detector applies a fetch result to the stored record. It is the only place
// that decides "unchanged" vs "updated", and it performs all resulting
// storage mutations. Callers drive notifications and events off the outcome.
type Detector struct {
	feeds     database.FeedRepository
	entries   database.EntryRepository
	retention int
}

func NewDetector(feeds database.FeedRepository, entries database.EntryRepository, retention int) *Detector {
	return &Detector{
		feeds:     feeds,
		entries:   entries,
		retention: retention,
	}
}

// Apply compares result against rec at minute resolution with strict
// greater-than. A record that has never been updated is always treated as
// updated so initial population happens exactly once; freshness keys on the
// record, not the cache, so a feed with zero entries converges after its
// first round.
func (d *Detector) Apply(rec *database.Feed, result feed.Result, mode feed.Mode) (Outcome, error) {
	fresh := rec.LastUpdated.IsZero()
	newer := result.UpdatedAt.After(rec.LastUpdated.Truncate(time.Minute))
	if !fresh && !newer {
		return OutcomeUnchanged, nil
	}

	dbEntries := toDBEntries(rec.ID, result.Entries)

	if mode == feed.ModeFull {
		if err := d.entries.Populate(rec.ID, dbEntries); err != nil {
			return OutcomeUnchanged, err
		}
	} else {
		if err := d.entries.Prepend(rec.ID, dbEntries); err != nil {
			return OutcomeUnchanged, err
		}
	}

	if err := d.entries.Prune(rec.ID, d.retention); err != nil {
		return OutcomeUnchanged, err
	}

	if err := d.feeds.UpdateLatest(rec.ID, result.UpdatedAt, result.LatestSummary, result.LatestLink); err != nil {
		return OutcomeUnchanged, err
	}

	return OutcomeUpdated, nil
}

func toDBEntries(feedID int64, entries []feed.Entry) []database.Entry {
	out := make([]database.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, database.Entry{
			FeedID:      feedID,
			Title:       e.Title,
			PublishedAt: e.PublishedAt,
			Summary:     e.Summary,
			Link:        e.Link,
		})
	}
	return out
}
