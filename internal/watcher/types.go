package watcher

import (
	"context"
	"time"

	"farebot/internal/aviasales"
)

type Config struct {
	Enabled  bool
	Schedule string

	// ChatPacing is the pause between subscribers within one cycle.
	ChatPacing time.Duration

	// RequestsPerSec caps upstream search calls. 0 disables the token bucket.
	RequestsPerSec int

	// Limit overrides the per-day offer limit passed to the price source.
	Limit int
}

// PriceSource is the upstream the watcher queries for day prices.
// *aviasales.Client satisfies it.
type PriceSource interface {
	Search(ctx context.Context, q aviasales.Query) ([]aviasales.Offer, error)
	OfferLink(o aviasales.Offer, q aviasales.Query) string
}

// Alert is one "price dropped below your threshold" event. PrevPrice is 0
// when the route-date has never been alerted before.
type Alert struct {
	ChatID      int64
	Origin      string
	Destination string
	Date        string
	Price       int
	PrevPrice   int
	Transfers   *int
	Link        string
}

// Alerter receives alerts the watcher decided to send. Delivery failures are
// the alerter's problem; the watcher has already persisted the price.
type Alerter interface {
	Alert(ctx context.Context, a Alert) error
}

// Clock abstracts time for deterministic cycle tests. Sleep must return early
// with ctx.Err() when the context is canceled.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CycleStats summarizes one RunCycle pass.
type CycleStats struct {
	Started  time.Time
	Duration time.Duration

	ChatsChecked int
	ChatsSkipped int
	ChatsFailed  int
	DaysQueried  int
	AlertsSent   int
}

// Hook observes completed cycles (logging, tests).
type Hook func(CycleStats)
