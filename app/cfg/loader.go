package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath           string `long:"db-path" env:"DB_PATH" default:"./feeddesk.db" description:"Path to the SQLite database file"`
	SubscriptionsDir string `long:"subscriptions-dir" env:"SUBSCRIPTIONS_DIR" default:"./subscriptions" description:"Directory containing subscription seed files"`
	EntryRetention   int    `long:"entry-retention" env:"ENTRY_RETENTION" default:"200" description:"Maximum cached entries kept per feed"`

	// Polling configuration
	UpdateDelay       int `long:"update-delay" env:"UPDATE_DELAY" default:"3600" description:"Delay between polling rounds in seconds"`
	FetchTimeout      int `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Per-feed fetch deadline in seconds"`
	CheckInterval     int `long:"check-interval" env:"CHECK_INTERVAL" default:"1" description:"Worker completion check interval in seconds"`
	ReconnectInterval int `long:"reconnect-interval" env:"RECONNECT_INTERVAL" default:"30" description:"Reconnect probe interval in seconds while offline"`

	// Connectivity probe
	ProbeHost    string `long:"probe-host" env:"PROBE_HOST" default:"www.google.com" description:"Host pinged to distinguish feed errors from connectivity loss"`
	ProbeTimeout int    `long:"probe-timeout" env:"PROBE_TIMEOUT" default:"5" description:"Connectivity probe timeout in seconds"`

	// Notifications
	NotifyCommand string `long:"notify-command" env:"NOTIFY_COMMAND" default:"notify-send" description:"Command invoked to deliver desktop notifications (empty disables notifications)"`
	NotifyIcon    string `long:"notify-icon" env:"NOTIFY_ICON" default:"application-rss+xml" description:"Icon name passed to the notification command"`

	// Control API
	Port         string `long:"port" env:"PORT" default:"8080" description:"Control API port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"Access key for mutating API endpoints (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"FeedDesk/1.0" description:"User agent string for feed requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		SubscriptionsDir:  raw.SubscriptionsDir,
		EntryRetention:    raw.EntryRetention,
		UpdateDelay:       raw.UpdateDelay,
		FetchTimeout:      raw.FetchTimeout,
		CheckInterval:     raw.CheckInterval,
		ReconnectInterval: raw.ReconnectInterval,
		ProbeHost:         raw.ProbeHost,
		ProbeTimeout:      raw.ProbeTimeout,
		NotifyCommand:     raw.NotifyCommand,
		NotifyIcon:        raw.NotifyIcon,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// SetForTesting replaces the global configuration. Test helper only.
func SetForTesting(c *Cfg) {
	globalCfg = c
}
