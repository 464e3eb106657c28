package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/feeddesk/feeddesk/app/cfg"
	"github.com/feeddesk/feeddesk/app/database"
	"github.com/feeddesk/feeddesk/app/feed"
)

var _ PollerInterface = (*Poller)(nil)

// ErrSuspended is returned by operations that cannot be accepted while
// polling is suspended.
var ErrSuspended = errors.New("polling is suspended")

type roundState int

const (
	stateIdle roundState = iota
	stateWaiting
	stateSuspended
)

func (s roundState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateWaiting:
		return "waiting"
	case stateSuspended:
		return "suspended"
	}
	return "unknown"
}

// Stats is a point-in-time snapshot of the poller for the status API.
type Stats struct {
	State        string
	Offline      bool
	InFlight     int
	NextRoundAt  *time.Time
	LastRoundAt  *time.Time
	TotalRounds  int64
	TotalUpdates int64
	TotalErrors  int64
}

// Poller orchestrates polling rounds. All FeedRecord and entry cache
// mutations happen on its single loop goroutine: workers only hand results
// back through their channels, and external operations arrive as closures on
// the command channel. That single-writer discipline is what makes the
// storage layer lock-free.
//
// Pending waits (next round, reconnect watchdog) are absolute deadlines
// checked by one ticker rather than independent timers, so cancelling a round
// is just clearing fields and cancelling workers.
type Poller struct {
	feeds    database.FeedRepository
	entries  database.EntryRepository
	fetcher  *feed.Fetcher
	detector *Detector
	monitor  *Monitor
	events   Events
	notifier Notifier

	updateDelay       time.Duration
	checkInterval     time.Duration
	reconnectInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	cmds   chan func()

	// Everything below is owned by the loop goroutine.
	state           roundState
	inflight        map[string]*feed.Worker // at most one outstanding worker per feed title
	adds            map[string]*pendingAdd  // keyed by URL
	nextRoundAt     time.Time               // zero when no round is scheduled
	reconnectAt     time.Time               // zero when the reconnect watchdog is unarmed
	offline         bool
	offlineNotified bool

	lastRoundAt  time.Time
	totalRounds  int64
	totalUpdates int64
	totalErrors  int64
}

type pendingAdd struct {
	url      string
	category string
	worker   *feed.Worker
}

func NewPoller(feeds database.FeedRepository, entries database.EntryRepository,
	fetcher *feed.Fetcher, detector *Detector, monitor *Monitor,
	events Events, notifier Notifier) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Poller{
		feeds:             feeds,
		entries:           entries,
		fetcher:           fetcher,
		detector:          detector,
		monitor:           monitor,
		events:            events,
		notifier:          notifier,
		updateDelay:       time.Duration(c.UpdateDelay) * time.Second,
		checkInterval:     time.Duration(c.CheckInterval) * time.Second,
		reconnectInterval: time.Duration(c.ReconnectInterval) * time.Second,
		ctx:               ctx,
		cancel:            cancel,
		cmds:              make(chan func(), 64),
		inflight:          make(map[string]*feed.Worker),
		adds:              make(map[string]*pendingAdd),
	}
}

func (p *Poller) Start() {
	p.wg.Add(1)
	go p.loop()
}

func (p *Poller) Stop() {
	p.cancel()
	p.wg.Wait()
}

func (p *Poller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	// Initial round is full-mode so entry caches get populated.
	p.startRound(feed.ModeFull)

	for {
		select {
		case <-p.ctx.Done():
			p.cancelAllWorkers()
			return
		case fn := <-p.cmds:
			fn()
		case <-ticker.C:
			p.step()
		}
	}
}

// do posts fn to the loop goroutine and waits for it to run.
func (p *Poller) do(fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case p.cmds <- wrapped:
	case <-p.ctx.Done():
		return p.ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// step is one observation tick: drain finished workers, detect round
// completion, fire due deadlines.
func (p *Poller) step() {
	if p.state == stateSuspended {
		return
	}

	now := time.Now()

	if p.offline {
		if !p.reconnectAt.IsZero() && !now.Before(p.reconnectAt) {
			p.checkReconnect()
		}
		return
	}

	p.pollAdds()

	for title, worker := range p.inflight {
		result, ok := worker.Poll()
		if !ok {
			continue
		}
		delete(p.inflight, title)
		p.handleResult(title, worker.Mode, result)
		if p.offline {
			return
		}
	}

	if p.state == stateWaiting && len(p.inflight) == 0 {
		p.completeRound()
	}

	if p.state == stateIdle && !p.nextRoundAt.IsZero() && !now.Before(p.nextRoundAt) {
		p.nextRoundAt = time.Time{}
		p.startRound(feed.ModeSummary)
	}
}

func (p *Poller) startRound(mode feed.Mode) {
	records, err := p.feeds.GetActive()
	if err != nil {
		slog.Error("Failed to load active feeds for round", "error", err)
		p.state = stateIdle
		p.nextRoundAt = time.Now().Add(p.updateDelay)
		return
	}

	p.state = stateWaiting
	dispatched := 0
	for _, rec := range records {
		if _, busy := p.inflight[rec.Title]; busy {
			// A previous fetch for this feed is still pending; never stack a
			// second one.
			continue
		}
		p.inflight[rec.Title] = p.fetcher.Dispatch(p.ctx, rec.URL, mode)
		dispatched++
	}

	slog.Info("Polling round started", "mode", string(mode), "feeds", dispatched)

	if len(p.inflight) == 0 {
		p.completeRound()
	}
}

func (p *Poller) completeRound() {
	p.state = stateIdle
	p.lastRoundAt = time.Now()
	p.totalRounds++
	p.nextRoundAt = p.lastRoundAt.Add(p.updateDelay)
	slog.Info("Polling round complete", "next_round_at", p.nextRoundAt.Format(time.RFC3339))
}

func (p *Poller) handleResult(title string, mode feed.Mode, result feed.Result) {
	rec, err := p.feeds.GetByTitle(title)
	if err != nil {
		slog.Error("Failed to load feed record", "feed", title, "error", err)
		return
	}
	if rec == nil {
		// Removed or renamed away while the fetch was in flight.
		slog.Debug("Discarding result for unknown feed", "feed", title)
		return
	}

	if !result.OK {
		p.handleFailure(rec, result.Err)
		return
	}

	p.offlineNotified = false

	outcome, err := p.detector.Apply(rec, result, mode)
	if err != nil {
		slog.Error("Failed to apply fetch result", "feed", rec.Title, "error", err)
		p.totalErrors++
		return
	}

	switch outcome {
	case OutcomeUpdated:
		p.totalUpdates++
		slog.Info("Feed updated", "feed", rec.Title, "updated", result.UpdatedAt.Format(time.RFC3339))
		p.notifier.Notify(rec.Title, result.LatestSummary)
		p.events.FeedUpdated(rec.Title, result.LatestSummary, result.UpdatedAt, result.LatestLink)
		if mode == feed.ModeFull {
			p.events.EntriesPopulated(rec.Title, toDBEntries(rec.ID, result.Entries))
		}
	case OutcomeUnchanged:
		slog.Debug("Feed up-to-date", "feed", rec.Title)
		if mode == feed.ModeFull {
			// Consumers cleared their state before a full round; hand them the
			// cache as-is without mutating it.
			p.emitCachedEntries(rec)
		}
	}
}

func (p *Poller) emitCachedEntries(rec *database.Feed) {
	entries, err := p.entries.GetEntries(rec.ID, 0)
	if err != nil {
		slog.Error("Failed to load cached entries", "feed", rec.Title, "error", err)
		return
	}
	p.events.EntriesPopulated(rec.Title, entries)
}

func (p *Poller) handleFailure(rec *database.Feed, fetchErr error) {
	p.totalErrors++

	if p.monitor.Online(p.ctx) {
		// The network is fine, the feed is not. The record keeps its stale
		// last_updated so the next round can detect a fix.
		slog.Error("Invalid feed", "feed", rec.Title, "url", rec.URL, "error", fetchErr)
		p.notifier.NotifyError("Error", fmt.Sprintf("%s is not a valid feed.", rec.URL))
		p.events.FeedError(rec.Title, rec.URL, fetchErr, false)
		return
	}

	p.goOffline(rec.Title, rec.URL, fetchErr)
}

func (p *Poller) goOffline(title, url string, fetchErr error) {
	slog.Warn("No internet connection, pausing polling")

	if !p.offlineNotified {
		p.notifier.NotifyError("Error", "No internet connection.")
		p.offlineNotified = true
	}
	p.events.FeedError(title, url, fetchErr, true)

	p.cancelAllWorkers()
	p.state = stateIdle
	p.nextRoundAt = time.Time{}
	p.offline = true
	p.reconnectAt = time.Now().Add(p.reconnectInterval)
}

func (p *Poller) checkReconnect() {
	if !p.monitor.Online(p.ctx) {
		p.reconnectAt = time.Now().Add(p.reconnectInterval)
		return
	}

	slog.Info("Internet connection restored, repolling all feeds")
	p.offline = false
	p.offlineNotified = false
	p.reconnectAt = time.Time{}
	p.startRound(feed.ModeFull)
}

func (p *Poller) cancelRoundWorkers() {
	for title, worker := range p.inflight {
		worker.Cancel()
		delete(p.inflight, title)
	}
}

func (p *Poller) cancelAllWorkers() {
	p.cancelRoundWorkers()
	for url, add := range p.adds {
		add.worker.Cancel()
		delete(p.adds, url)
	}
}

// --- feed addition

// AddFeed starts a full-mode fetch of url; the record is created only once
// the fetch succeeds. The call returns as soon as the fetch is dispatched,
// or ErrSuspended while polling is suspended.
func (p *Poller) AddFeed(url, category string) error {
	if url == "" {
		return fmt.Errorf("feed URL is required")
	}
	var opErr error
	err := p.do(func() {
		if p.state == stateSuspended {
			opErr = ErrSuspended
			return
		}
		if _, pending := p.adds[url]; pending {
			return
		}
		p.adds[url] = &pendingAdd{
			url:      url,
			category: category,
			worker:   p.fetcher.Dispatch(p.ctx, url, feed.ModeFull),
		}
		slog.Info("Fetching new feed", "url", url)
	})
	if err != nil {
		return err
	}
	return opErr
}

func (p *Poller) pollAdds() {
	for url, add := range p.adds {
		result, ok := add.worker.Poll()
		if !ok {
			continue
		}
		delete(p.adds, url)
		p.finishAdd(add, result)
		if p.offline {
			return
		}
	}
}

func (p *Poller) finishAdd(add *pendingAdd, result feed.Result) {
	if !result.OK {
		p.totalErrors++
		if p.monitor.Online(p.ctx) {
			slog.Error("Invalid feed", "url", add.url, "error", result.Err)
			p.notifier.NotifyError("Error", fmt.Sprintf("%s is not a valid feed.", add.url))
			p.events.FeedError("", add.url, result.Err, false)
		} else {
			slog.Warn("No internet connection", "url", add.url)
			p.notifier.NotifyError("Error", "No internet connection.")
			p.events.FeedError("", add.url, result.Err, true)
		}
		return
	}

	title := result.FeedTitle
	if title == "" {
		title = add.url
	}

	rec, err := p.feeds.Create(title, add.url, add.category, true)
	if err != nil {
		slog.Error("Failed to create feed record", "url", add.url, "error", err)
		return
	}

	if _, err := p.detector.Apply(rec, result, feed.ModeFull); err != nil {
		slog.Error("Failed to populate new feed", "feed", rec.Title, "error", err)
	}

	slog.Info("Added feed", "feed", rec.Title, "url", add.url)
	p.notifier.Notify(rec.Title, result.LatestSummary)
	p.events.FeedAdded(rec.Title, add.url, result.LatestSummary, result.UpdatedAt)
	p.events.EntriesPopulated(rec.Title, toDBEntries(rec.ID, result.Entries))
}

// --- feed management

func (p *Poller) RemoveFeed(title string) error {
	var opErr error
	err := p.do(func() {
		rec, err := p.feeds.GetByTitle(title)
		if err != nil {
			opErr = err
			return
		}
		if rec == nil {
			opErr = fmt.Errorf("feed %q not found", title)
			return
		}

		if worker, ok := p.inflight[title]; ok {
			worker.Cancel()
			delete(p.inflight, title)
		}

		if err := p.feeds.Delete(rec.ID); err != nil {
			opErr = err
			return
		}

		slog.Info("Removed feed", "feed", title, "url", rec.URL)
		p.events.FeedRemoved(title)
	})
	if err != nil {
		return err
	}
	return opErr
}

// RenameFeed renames a feed, disambiguating title collisions, and remaps any
// in-flight worker to the new title so its result is not lost. The final
// (possibly disambiguated) title is returned; operations targeting the old
// title fail afterwards.
func (p *Poller) RenameFeed(oldTitle, newTitle string) (string, error) {
	var finalTitle string
	var opErr error
	err := p.do(func() {
		rec, err := p.feeds.GetByTitle(oldTitle)
		if err != nil {
			opErr = err
			return
		}
		if rec == nil {
			opErr = fmt.Errorf("feed %q not found", oldTitle)
			return
		}

		finalTitle, opErr = p.feeds.Rename(rec.ID, newTitle)
		if opErr != nil {
			return
		}

		if worker, ok := p.inflight[oldTitle]; ok {
			delete(p.inflight, oldTitle)
			p.inflight[finalTitle] = worker
		}

		slog.Info("Renamed feed", "from", oldTitle, "to", finalTitle)
		p.events.FeedRenamed(oldTitle, finalTitle)
	})
	if err != nil {
		return "", err
	}
	return finalTitle, opErr
}

// SetFeedActive toggles polling for a feed. Deactivation does not cancel a
// fetch already in flight; reactivation triggers an immediate single-feed
// fetch outside the round cadence.
func (p *Poller) SetFeedActive(title string, active bool) error {
	var opErr error
	err := p.do(func() {
		rec, err := p.feeds.GetByTitle(title)
		if err != nil {
			opErr = err
			return
		}
		if rec == nil {
			opErr = fmt.Errorf("feed %q not found", title)
			return
		}

		if err := p.feeds.SetActive(rec.ID, active); err != nil {
			opErr = err
			return
		}

		slog.Info("Feed active flag changed", "feed", title, "active", active)

		if active && p.state != stateSuspended && !p.offline {
			if _, busy := p.inflight[title]; !busy {
				p.inflight[title] = p.fetcher.Dispatch(p.ctx, rec.URL, feed.ModeSummary)
			}
		}
	})
	if err != nil {
		return err
	}
	return opErr
}

func (p *Poller) SetFeedCategory(title, category string) error {
	return p.updateRecord(title, func(rec *database.Feed) error {
		return p.feeds.SetCategory(rec.ID, category)
	})
}

func (p *Poller) SetFeedSortReversed(title string, reversed bool) error {
	return p.updateRecord(title, func(rec *database.Feed) error {
		return p.feeds.SetSortReversed(rec.ID, reversed)
	})
}

func (p *Poller) updateRecord(title string, update func(*database.Feed) error) error {
	var opErr error
	err := p.do(func() {
		rec, err := p.feeds.GetByTitle(title)
		if err != nil {
			opErr = err
			return
		}
		if rec == nil {
			opErr = fmt.Errorf("feed %q not found", title)
			return
		}
		opErr = update(rec)
	})
	if err != nil {
		return err
	}
	return opErr
}

// --- global controls

// Suspend stops all polling: in-flight workers are cancelled and every
// pending deadline is cleared. No worker is dispatched again until Resume.
func (p *Poller) Suspend() error {
	return p.do(func() {
		if p.state == stateSuspended {
			return
		}
		p.cancelAllWorkers()
		p.state = stateSuspended
		p.nextRoundAt = time.Time{}
		p.reconnectAt = time.Time{}
		p.offline = false
		slog.Info("Polling suspended")
	})
}

// Resume restarts polling with an immediate full-mode round, since consumers
// cleared their state while suspended and need repopulating.
func (p *Poller) Resume() error {
	return p.do(func() {
		if p.state != stateSuspended {
			return
		}
		p.state = stateIdle
		p.offlineNotified = false
		slog.Info("Polling resumed")
		p.startRound(feed.ModeFull)
	})
}

// RefreshNow cancels the pending reschedule and any still-running round
// workers, then starts one fresh summary-mode round. Calling it twice in
// quick succession therefore yields exactly one fresh round. Pending feed
// additions are left alone.
func (p *Poller) RefreshNow() error {
	return p.do(func() {
		if p.state == stateSuspended {
			return
		}
		p.cancelRoundWorkers()
		p.nextRoundAt = time.Time{}
		p.reconnectAt = time.Time{}
		p.offline = false
		slog.Info("Manual refresh requested")
		p.startRound(feed.ModeSummary)
	})
}

func (p *Poller) Stats() (Stats, error) {
	var stats Stats
	err := p.do(func() {
		stats = Stats{
			State:        p.state.String(),
			Offline:      p.offline,
			InFlight:     len(p.inflight) + len(p.adds),
			TotalRounds:  p.totalRounds,
			TotalUpdates: p.totalUpdates,
			TotalErrors:  p.totalErrors,
		}
		if !p.nextRoundAt.IsZero() {
			t := p.nextRoundAt
			stats.NextRoundAt = &t
		}
		if !p.lastRoundAt.IsZero() {
			t := p.lastRoundAt
			stats.LastRoundAt = &t
		}
	})
	return stats, err
}
