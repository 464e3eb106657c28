package cfg

type Cfg struct {
	// Storage configuration
	DBPath           string
	SubscriptionsDir string
	EntryRetention   int

	// Polling configuration
	UpdateDelay       int
	FetchTimeout      int
	CheckInterval     int
	ReconnectInterval int

	// Connectivity probe
	ProbeHost    string
	ProbeTimeout int

	// Notifications
	NotifyCommand string
	NotifyIcon    string

	// Control API
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
