package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of subscription seed files
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// LoadAll loads all YAML subscription files from the configured directory.
// A missing directory is not an error, it just yields no subscriptions.
func (l *Loader) LoadAll() ([]*Subscription, error) {
	var subs []*Subscription

	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		return subs, nil
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		sub, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(sub); err != nil {
			return nil, fmt.Errorf("invalid subscription %s: %w", file, err)
		}

		subs = append(subs, sub)
		slog.Debug("Loaded subscription", "file", file, "url", sub.URL)
	}

	return subs, nil
}

func (l *Loader) loadFile(path string) (*Subscription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var sub Subscription
	if err := yaml.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &sub, nil
}

func (l *Loader) validate(sub *Subscription) error {
	if sub.URL == "" {
		return fmt.Errorf("subscription URL is required")
	}
	return nil
}
