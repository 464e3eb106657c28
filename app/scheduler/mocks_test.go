package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/feeddesk/feeddesk/app/database"
)

// MockFeedRepository implements an in-memory FeedRepository for testing.
type MockFeedRepository struct {
	mu     sync.Mutex
	nextID int64
	feeds  map[int64]*database.Feed

	updateLatestCalls int
}

var _ database.FeedRepository = (*MockFeedRepository)(nil)

func NewMockFeedRepository() *MockFeedRepository {
	return &MockFeedRepository{feeds: make(map[int64]*database.Feed)}
}

func (m *MockFeedRepository) add(title, url, category string, active bool, lastUpdated time.Time) *database.Feed {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	feed := &database.Feed{
		ID:          m.nextID,
		Title:       title,
		URL:         url,
		Category:    category,
		Active:      active,
		LastUpdated: lastUpdated,
	}
	m.feeds[feed.ID] = feed
	return copyFeed(feed)
}

func copyFeed(f *database.Feed) *database.Feed {
	c := *f
	return &c
}

func (m *MockFeedRepository) GetByTitle(title string) (*database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.feeds {
		if f.Title == title {
			return copyFeed(f), nil
		}
	}
	return nil, nil
}

func (m *MockFeedRepository) GetByURL(url string) (*database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.feeds {
		if f.URL == url {
			return copyFeed(f), nil
		}
	}
	return nil, nil
}

func (m *MockFeedRepository) GetAll() ([]database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.Feed
	for _, f := range m.feeds {
		out = append(out, *f)
	}
	return out, nil
}

func (m *MockFeedRepository) GetActive() ([]database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.Feed
	for _, f := range m.feeds {
		if f.Active {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *MockFeedRepository) GetCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.feeds), nil
}

func (m *MockFeedRepository) GetActiveCount() (int, error) {
	feeds, _ := m.GetActive()
	return len(feeds), nil
}

func (m *MockFeedRepository) Create(title, url, category string, active bool) (*database.Feed, error) {
	final := m.resolveTitle(title, 0)
	return m.add(final, url, category, active, time.Time{}), nil
}

func (m *MockFeedRepository) resolveTitle(title string, selfID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	taken := func(t string) bool {
		for _, f := range m.feeds {
			if f.Title == t && f.ID != selfID {
				return true
			}
		}
		return false
	}
	if !taken(title) {
		return title
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s~#%d", title, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

func (m *MockFeedRepository) UpdateLatest(id int64, lastUpdated time.Time, latestSummary, latestLink string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.feeds[id]
	if !ok {
		return fmt.Errorf("feed %d not found", id)
	}
	f.LastUpdated = lastUpdated
	f.LatestSummary = latestSummary
	f.LatestLink = latestLink
	m.updateLatestCalls++
	return nil
}

func (m *MockFeedRepository) SetActive(id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.feeds[id]; ok {
		f.Active = active
	}
	return nil
}

func (m *MockFeedRepository) SetCategory(id int64, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.feeds[id]; ok {
		f.Category = category
	}
	return nil
}

func (m *MockFeedRepository) SetSortReversed(id int64, reversed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.feeds[id]; ok {
		f.SortReversed = reversed
	}
	return nil
}

func (m *MockFeedRepository) Rename(id int64, newTitle string) (string, error) {
	final := m.resolveTitle(newTitle, id)
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.feeds[id]
	if !ok {
		return "", fmt.Errorf("feed %d not found", id)
	}
	f.Title = final
	return final, nil
}

func (m *MockFeedRepository) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.feeds, id)
	return nil
}

func (m *MockFeedRepository) UpdateLatestCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLatestCalls
}

// MockEntryRepository implements an in-memory EntryRepository for testing.
type MockEntryRepository struct {
	mu      sync.Mutex
	entries map[int64][]database.Entry

	populateCalls int
	prependCalls  int
}

var _ database.EntryRepository = (*MockEntryRepository)(nil)

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{entries: make(map[int64][]database.Entry)}
}

func (m *MockEntryRepository) GetEntries(feedID int64, limit int) ([]database.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.entries[feedID]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	out := make([]database.Entry, len(entries))
	copy(out, entries)
	return out, nil
}

func (m *MockEntryRepository) GetCount(feedID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[feedID]), nil
}

func (m *MockEntryRepository) HasEntries(feedID int64) (bool, error) {
	count, _ := m.GetCount(feedID)
	return count > 0, nil
}

func (m *MockEntryRepository) Populate(feedID int64, entries []database.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[feedID] = append([]database.Entry(nil), entries...)
	m.populateCalls++
	return nil
}

func (m *MockEntryRepository) Prepend(feedID int64, entries []database.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[feedID] = append(append([]database.Entry(nil), entries...), m.entries[feedID]...)
	m.prependCalls++
	return nil
}

func (m *MockEntryRepository) Prune(feedID int64, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if keep > 0 && len(m.entries[feedID]) > keep {
		m.entries[feedID] = m.entries[feedID][:keep]
	}
	return nil
}

func (m *MockEntryRepository) PopulateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.populateCalls
}

func (m *MockEntryRepository) PrependCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prependCalls
}

// RecordingNotifier counts notifications for assertions.
type RecordingNotifier struct {
	mu       sync.Mutex
	notifies []string
	errors   []string
}

var _ Notifier = (*RecordingNotifier)(nil)

func (n *RecordingNotifier) Notify(title, htmlBody string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifies = append(n.notifies, title)
}

func (n *RecordingNotifier) NotifyError(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *RecordingNotifier) NotifyCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notifies)
}

func (n *RecordingNotifier) Notifies() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notifies...)
}

func (n *RecordingNotifier) ErrorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

func (n *RecordingNotifier) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

// RecordingEvents records event callbacks for assertions.
type RecordingEvents struct {
	mu        sync.Mutex
	added     []string
	updated   []string
	removed   []string
	renamed   [][2]string
	populated []string
	failures  []bool // offline flag per FeedError
}

var _ Events = (*RecordingEvents)(nil)

func (e *RecordingEvents) FeedAdded(title, url, latestHTML string, updatedAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.added = append(e.added, title)
}

func (e *RecordingEvents) FeedUpdated(title, latestHTML string, updatedAt time.Time, link string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updated = append(e.updated, title)
}

func (e *RecordingEvents) FeedRemoved(title string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = append(e.removed, title)
}

func (e *RecordingEvents) FeedRenamed(oldTitle, newTitle string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renamed = append(e.renamed, [2]string{oldTitle, newTitle})
}

func (e *RecordingEvents) EntriesPopulated(title string, entries []database.Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.populated = append(e.populated, title)
}

func (e *RecordingEvents) FeedError(title, url string, err error, offline bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, offline)
}

func (e *RecordingEvents) AddedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.added)
}

func (e *RecordingEvents) UpdatedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.updated)
}

func (e *RecordingEvents) RemovedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.removed)
}

func (e *RecordingEvents) PopulatedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.populated)
}

func (e *RecordingEvents) Failures() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]bool(nil), e.failures...)
}
