package app

import (
	"time"

	"farebot/internal/aviasales"
	"farebot/internal/config"
	"farebot/internal/notifier"
	"farebot/internal/subscription"
	"farebot/internal/watcher"
)

func mapStorageConfig(cfg *config.Config) (subscription.Config, error) {
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return subscription.Config{}, err
	}
	return subscription.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, nil
}

func mapAviasalesConfig(cfg *config.Config) (aviasales.Config, error) {
	timeout, err := config.ParseDurationField("aviasales.request_timeout", cfg.Aviasales.RequestTimeout)
	if err != nil {
		return aviasales.Config{}, err
	}
	return aviasales.Config{
		Token:          cfg.Aviasales.Token,
		Currency:       cfg.Aviasales.Currency,
		Market:         cfg.Aviasales.Market,
		APIURL:         cfg.Aviasales.APIURL,
		SearchURL:      cfg.Aviasales.SearchURL,
		RequestTimeout: timeout,
		Limit:          cfg.Aviasales.Limit,
	}, nil
}

func mapWatcherConfig(cfg *config.Config) (watcher.Config, error) {
	pacing, err := config.ParseDurationOrDefault("watcher.chat_pacing", cfg.Watcher.ChatPacing, time.Second)
	if err != nil {
		return watcher.Config{}, err
	}
	return watcher.Config{
		Enabled:        cfg.Watcher.Enabled,
		Schedule:       cfg.Watcher.Schedule,
		ChatPacing:     pacing,
		RequestsPerSec: cfg.Watcher.RequestsPerSec,
		Limit:          cfg.Aviasales.Limit,
	}, nil
}

// mapNotifierConfig applies the "omitted section means enabled" default.
func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	if cfg.Notifier == nil {
		return notifier.Config{Enabled: true}, nil
	}
	base, err := config.ParseDurationField("notifier.retry_base", cfg.Notifier.RetryBase)
	if err != nil {
		return notifier.Config{}, err
	}
	maxDelay, err := config.ParseDurationField("notifier.retry_max_delay", cfg.Notifier.RetryMaxDelay)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		Enabled:       cfg.Notifier.Enabled,
		Workers:       cfg.Notifier.Workers,
		QueueSize:     cfg.Notifier.QueueSize,
		RatePerSec:    cfg.Notifier.RatePerSec,
		RetryMax:      cfg.Notifier.RetryMax,
		RetryBase:     base,
		RetryMaxDelay: maxDelay,
	}, nil
}
