package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"farebot/internal/transport"
	logx "farebot/pkg/logx"
)

type fakeAdapter struct {
	mu       sync.Mutex
	sent     []string
	failures int // fail this many sends before succeeding
	done     chan struct{}
}

func (f *fakeAdapter) Start(ctx context.Context, out chan<- transport.Update) error { return nil }
func (f *fakeAdapter) Stop(ctx context.Context) error                               { return nil }

func (f *fakeAdapter) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return transport.MessageRef{}, errors.New("send failed")
	}
	f.sent = append(f.sent, text)
	if f.done != nil {
		select {
		case f.done <- struct{}{}:
		default:
		}
	}
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func (f *fakeAdapter) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func testConfig() Config {
	return Config{
		Enabled:       true,
		Workers:       1,
		QueueSize:     8,
		RatePerSec:    1000,
		RetryMax:      2,
		RetryBase:     time.Millisecond,
		RetryMaxDelay: 5 * time.Millisecond,
	}
}

func TestNotifyDeliversAndAssignsID(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{done: make(chan struct{}, 1)}
	s := New(testConfig(), ad, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop(context.Background())

	if err := s.Notify(ctx, Notification{Target: transport.ChatTarget{ChatID: 1}, Text: "hello"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case <-ad.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never delivered")
	}
	if got := ad.sentTexts(); len(got) != 1 || got[0] != "hello" {
		t.Fatalf("sent = %v", got)
	}
}

func TestNotifyRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{failures: 2, done: make(chan struct{}, 1)}
	s := New(testConfig(), ad, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop(context.Background())

	if err := s.Notify(ctx, Notification{Target: transport.ChatTarget{ChatID: 1}, Text: "retry me"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case <-ad.done:
	case <-time.After(2 * time.Second):
		t.Fatal("retries never succeeded")
	}
}

func TestNotifyDisabled(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Enabled = false
	s := New(cfg, &fakeAdapter{}, logx.Nop())
	s.Start(context.Background())

	err := s.Notify(context.Background(), Notification{Text: "x"})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestNotifyBeforeStart(t *testing.T) {
	t.Parallel()
	s := New(testConfig(), &fakeAdapter{}, logx.Nop())

	err := s.Notify(context.Background(), Notification{Text: "x"})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
}

func TestStopDrainsQueue(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	cfg := testConfig()
	s := New(cfg, ad, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	for i := 0; i < 5; i++ {
		if err := s.Notify(ctx, Notification{Target: transport.ChatTarget{ChatID: 1}, Text: "queued"}); err != nil {
			t.Fatalf("Notify %d: %v", i, err)
		}
	}
	s.Stop(context.Background())

	if got := len(ad.sentTexts()); got != 5 {
		t.Fatalf("delivered %d of 5 queued notifications", got)
	}
	if err := s.Notify(ctx, Notification{Text: "late"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("post-stop err = %v, want ErrStopped", err)
	}
}
