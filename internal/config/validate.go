package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the parts of the config that can be verified without
// talking to any external service. Components validate their own sections
// further (e.g. the watcher parses its schedule spec).
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if strings.TrimSpace(cfg.Aviasales.Token) == "" {
		return errors.New("aviasales.token is required")
	}
	if cfg.Aviasales.Limit < 0 {
		return errors.New("aviasales.limit must be >= 0")
	}

	durations := []struct{ path, raw string }{
		{"telegram.poll_timeout", cfg.Telegram.PollTimeout},
		{"aviasales.request_timeout", cfg.Aviasales.RequestTimeout},
		{"watcher.chat_pacing", cfg.Watcher.ChatPacing},
		{"storage.busy_timeout", cfg.Storage.BusyTimeout},
	}
	if cfg.Notifier != nil {
		durations = append(durations,
			struct{ path, raw string }{"notifier.retry_base", cfg.Notifier.RetryBase},
			struct{ path, raw string }{"notifier.retry_max_delay", cfg.Notifier.RetryMaxDelay},
		)
	}
	for _, d := range durations {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			return err
		}
	}

	switch drv := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)); drv {
	case "", "file", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", drv)
	}
	return nil
}
