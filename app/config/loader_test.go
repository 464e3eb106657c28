package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSubscription(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeSubscription(t, dir, "tech.yaml", "url: https://example.com/tech.rss\ncategory: tech\n")
	writeSubscription(t, dir, "news.yml", "url: https://example.com/news.rss\n")
	writeSubscription(t, dir, "ignored.txt", "url: https://example.com/nope.rss\n")

	subs, err := NewLoader(dir).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("loaded %d subscriptions, want 2", len(subs))
	}

	byURL := make(map[string]*Subscription)
	for _, sub := range subs {
		byURL[sub.URL] = sub
	}
	tech := byURL["https://example.com/tech.rss"]
	if tech == nil || tech.Category != "tech" {
		t.Errorf("tech subscription = %+v, want category tech", tech)
	}
	if byURL["https://example.com/news.rss"] == nil {
		t.Error(".yml file was not loaded")
	}
}

func TestLoadAllMissingDirectory(t *testing.T) {
	subs, err := NewLoader(filepath.Join(t.TempDir(), "nope")).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("loaded %d subscriptions from missing dir, want 0", len(subs))
	}
}

func TestLoadAllMissingURL(t *testing.T) {
	dir := t.TempDir()
	writeSubscription(t, dir, "bad.yaml", "category: tech\n")

	if _, err := NewLoader(dir).LoadAll(); err == nil {
		t.Error("LoadAll() succeeded for subscription without URL, want error")
	}
}

func TestLoadAllInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeSubscription(t, dir, "broken.yaml", "url: [unclosed\n")

	if _, err := NewLoader(dir).LoadAll(); err == nil {
		t.Error("LoadAll() succeeded for malformed YAML, want error")
	}
}

func TestIsActiveDefaultsTrue(t *testing.T) {
	sub := &Subscription{URL: "https://example.com/rss"}
	if !sub.IsActive() {
		t.Error("IsActive() = false for omitted flag, want true")
	}

	inactive := false
	sub.Active = &inactive
	if sub.IsActive() {
		t.Error("IsActive() = true for explicit false")
	}
}
