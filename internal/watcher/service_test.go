package watcher

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"farebot/internal/subscription"
	logx "farebot/pkg/logx"
)

// traceLog records the interleaving of store reads and schedule sleeps so
// tests can assert in what order the service loop does things.
type traceLog struct {
	mu     sync.Mutex
	events []string
}

func (l *traceLog) add(ev string) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *traceLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type tracingStore struct {
	*memStore
	trace *traceLog
}

func (s *tracingStore) LoadAll(ctx context.Context) (map[int64]*subscription.Subscription, error) {
	s.trace.add("load")
	return s.memStore.LoadAll(ctx)
}

type tracingClock struct {
	mu    sync.Mutex
	now   time.Time
	trace *traceLog
}

func (c *tracingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *tracingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	c.trace.add("sleep " + d.String())
	return ctx.Err()
}

// startTracedService wires a service around tracing fakes and runs it until
// the first completed cycle, then shuts it down and returns the event trace.
func startTracedService(t *testing.T, schedule string) []string {
	t.Helper()

	trace := &traceLog{}
	store := &tracingStore{memStore: newMemStore(nil), trace: trace}
	clock := &tracingClock{now: time.Date(2026, 1, 15, 12, 15, 0, 0, time.UTC), trace: trace}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycleDone := make(chan struct{}, 1)
	cfg := Config{Enabled: true, Schedule: schedule}
	w := New(cfg, store, &fakeSource{prices: map[string]int{}}, &fakeAlerter{}, logx.Nop(),
		WithClock(clock),
		WithHook(func(CycleStats) {
			select {
			case cycleDone <- struct{}{}:
			default:
			}
			cancel()
		}))
	svc, err := NewService(cfg, w, logx.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-cycleDone:
	case <-time.After(5 * time.Second):
		t.Fatal("no cycle completed")
	}
	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	return trace.snapshot()
}

func TestServiceIntervalChecksPricesOnStart(t *testing.T) {
	t.Parallel()

	events := startTracedService(t, "1h")
	if len(events) == 0 || events[0] != "load" {
		t.Fatalf("events = %v, want the first price check before any schedule sleep", events)
	}
}

func TestServiceCronWaitsForBoundary(t *testing.T) {
	t.Parallel()

	events := startTracedService(t, "0 * * * *")
	if len(events) < 2 || !strings.HasPrefix(events[0], "sleep") {
		t.Fatalf("events = %v, want a sleep to the cron boundary before the first check", events)
	}
	if events[0] != "sleep 45m0s" {
		t.Fatalf("events[0] = %q, want a 45m wait from 12:15 to the top of the hour", events[0])
	}
	if events[1] != "load" {
		t.Fatalf("events[1] = %q, want the check right after the boundary", events[1])
	}
}
