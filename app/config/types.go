package config

// Subscription represents a seed subscription loaded from a YAML file.
// Feeds declared here are added to the store on startup if missing.
type Subscription struct {
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Active   *bool  `yaml:"active"`
}

// IsActive reports the active flag, defaulting to true when omitted.
func (s *Subscription) IsActive() bool {
	if s.Active == nil {
		return true
	}
	return *s.Active
}
