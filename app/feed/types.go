package feed

import "time"

// Mode selects how much of a feed a fetch returns.
type Mode string

const (
	// ModeSummary returns only the newest entry, the cheap steady-state path.
	ModeSummary Mode = "summary"
	// ModeFull returns the complete entry list, used for initial population
	// and re-initialization after a connectivity recovery.
	ModeFull Mode = "full"
)

// Entry is a normalized feed entry.
type Entry struct {
	Title       string
	PublishedAt time.Time // minute resolution, UTC
	Summary     string
	Link        string
}

// Result is the outcome of one fetch. A failed fetch carries OK=false and
// nothing else; "unreachable" and "invalid" are not distinguishable here.
type Result struct {
	OK            bool
	FeedTitle     string
	UpdatedAt     time.Time // newest entry timestamp; time of fetch when absent
	Entries       []Entry   // newest first
	LatestSummary string    // rendering payload of the newest entry
	LatestLink    string
	Err           error // diagnostic only, never crosses the result channel as a panic
}
