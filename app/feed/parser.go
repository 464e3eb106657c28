package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses raw feed bytes and normalizes them into a Result. The parser
// library gives no ordering guarantee, so entries are sorted newest-first
// here. Timestamps are truncated to the minute in UTC; entries without a
// timestamp fall back to now.
func (p *Parser) Run(data []byte, mode Mode, now time.Time) (*Result, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	fallback := now.UTC().Truncate(time.Minute)

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, p.normalizeItem(item, fallback))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PublishedAt.After(entries[j].PublishedAt)
	})

	result := &Result{
		OK:        true,
		FeedTitle: parsed.Title,
		UpdatedAt: fallback,
	}

	if len(entries) > 0 {
		newest := entries[0]
		result.UpdatedAt = newest.PublishedAt
		result.LatestSummary = renderLatest(newest.Title, newest.Summary)
		result.LatestLink = newest.Link
	}

	if mode == ModeSummary && len(entries) > 1 {
		entries = entries[:1]
	}
	result.Entries = entries

	return result, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item, fallback time.Time) Entry {
	entry := Entry{
		Title:       item.Title,
		Summary:     cmp.Or(item.Description, item.Content),
		Link:        item.Link,
		PublishedAt: fallback,
	}

	// Prefer the updated timestamp over published, matching the feed's own
	// notion of recency for edited entries.
	if item.UpdatedParsed != nil {
		entry.PublishedAt = item.UpdatedParsed.UTC().Truncate(time.Minute)
	} else if item.PublishedParsed != nil {
		entry.PublishedAt = item.PublishedParsed.UTC().Truncate(time.Minute)
	}

	return entry
}

// renderLatest builds the newest entry's display payload consumed by the
// notification sink and the widget layer.
func renderLatest(title, summary string) string {
	return fmt.Sprintf("<p id=title>%s</p>\n%s", title, summary)
}
