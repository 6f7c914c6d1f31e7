package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Aviasales configures the flight price source (Travelpayouts data API).
	Aviasales AviasalesConfig `json:"aviasales"`

	// Watcher controls the periodic price-check loop.
	Watcher WatcherConfig `json:"watcher"`

	// Notifier controls the async alert pipeline.
	// If the whole section is omitted, the notifier defaults to enabled=true.
	Notifier *NotifierConfig `json:"notifier,omitempty"`

	Storage StorageConfig `json:"storage"`
}

type TelegramConfig struct {
	Token        string  `json:"token"`
	OwnerUserIDs []int64 `json:"owner_user_ids,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// AviasalesConfig configures the prices_for_dates client.
//
// Defaults (when fields are omitted/zero):
//   - currency: "rub"
//   - market: "ru"
//   - request_timeout: "25s"
//   - limit: 100
type AviasalesConfig struct {
	Token    string `json:"token"`
	Currency string `json:"currency,omitempty"`
	Market   string `json:"market,omitempty"`

	// APIURL and SearchURL override the upstream endpoints (tests, proxies).
	APIURL    string `json:"api_url,omitempty"`
	SearchURL string `json:"search_url,omitempty"`

	// RequestTimeout is a Go duration string bounding a single search call.
	RequestTimeout string `json:"request_timeout,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

// WatcherConfig controls the price-check cycle.
//
// Schedule accepts either a cron expression ("0 * * * *", "@hourly") or a
// Go duration ("1h", "90m"). Default is "1h".
type WatcherConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"`

	// ChatPacing is the pause between subscribers within one cycle.
	ChatPacing string `json:"chat_pacing,omitempty"`

	// RequestsPerSec caps upstream search calls (token bucket). 0 means
	// uncapped beyond ChatPacing.
	RequestsPerSec int `json:"requests_per_sec,omitempty"`

	// Defaults applied to newly created subscriptions.
	DefaultOrigin      string `json:"default_origin,omitempty"`
	DefaultDestination string `json:"default_destination,omitempty"`
}

// NotifierConfig controls the async alert pipeline.
// All durations are Go duration strings (e.g. "500ms", "10s").
type NotifierConfig struct {
	Enabled       bool   `json:"enabled"`
	Workers       int    `json:"workers,omitempty"`
	QueueSize     int    `json:"queue_size,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
}

// StorageConfig selects the subscription store backend.
//
// Driver values:
//   - "file": single JSON document (default)
//   - "sqlite": SQLite database file (requires the sqlite build tag)
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
