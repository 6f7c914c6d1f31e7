package bot

import (
	"context"
	"strings"
	"sync"
	"testing"

	"farebot/internal/subscription"
	"farebot/internal/transport"
	"farebot/internal/transport/telegram/router"
	logx "farebot/pkg/logx"
)

type memStore struct {
	mu   sync.Mutex
	data map[int64]*subscription.Subscription
}

func newMemStore() *memStore {
	return &memStore{data: map[int64]*subscription.Subscription{}}
}

func (m *memStore) LoadAll(ctx context.Context) (map[int64]*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]*subscription.Subscription, len(m.data))
	for id, s := range m.data {
		out[id] = s.Clone()
	}
	return out, nil
}

func (m *memStore) SaveAll(ctx context.Context, subs map[int64]*subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[int64]*subscription.Subscription, len(subs))
	for id, s := range subs {
		m.data[id] = s.Clone()
	}
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) get(chatID int64) *subscription.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[chatID].Clone()
}

type replyAdapter struct {
	mu      sync.Mutex
	replies []string
}

func (r *replyAdapter) Start(ctx context.Context, out chan<- transport.Update) error { return nil }
func (r *replyAdapter) Stop(ctx context.Context) error                               { return nil }

func (r *replyAdapter) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	r.mu.Lock()
	r.replies = append(r.replies, text)
	r.mu.Unlock()
	return transport.MessageRef{}, nil
}

func (r *replyAdapter) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.replies) == 0 {
		return ""
	}
	return r.replies[len(r.replies)-1]
}

type fixture struct {
	svc   *Service
	store *memStore
	ad    *replyAdapter
	cmds  map[string]router.Command
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	svc := New(store, Defaults{Origin: "SVO", Destination: "HKT"}, "rub", logx.Nop())
	cmds := map[string]router.Command{}
	for _, c := range svc.Commands() {
		cmds[c.Name] = c
	}
	return &fixture{svc: svc, store: store, ad: &replyAdapter{}, cmds: cmds}
}

func (f *fixture) run(t *testing.T, chatID int64, name string, args ...string) string {
	t.Helper()
	cmd, ok := f.cmds[name]
	if !ok {
		t.Fatalf("command %q not registered", name)
	}
	req := &router.Request{
		Chat:    transport.ChatTarget{ChatID: chatID},
		Command: name,
		Args:    args,
		Adapter: f.ad,
		Logger:  logx.Nop(),
	}
	if err := cmd.Handle(context.Background(), req); err != nil {
		t.Fatalf("/%s: %v", name, err)
	}
	return f.ad.last()
}

func TestStartCreatesSubscription(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	out := f.run(t, 42, "start")
	if !strings.Contains(out, "SVO → HKT") {
		t.Fatalf("start reply = %q", out)
	}

	sub := f.store.get(42)
	if sub == nil {
		t.Fatal("subscription not created")
	}
	if sub.Enabled {
		t.Fatal("new subscription must start disabled")
	}
	if !sub.OneWay {
		t.Fatal("new subscription defaults to one-way")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.run(t, 42, "start")
	f.run(t, 42, "setprice", "60000")
	f.run(t, 42, "start")

	if f.store.get(42).MaxPrice != 60000 {
		t.Fatal("repeated /start must not reset the subscription")
	}
}

func TestSetDatesValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.run(t, 42, "start")

	tests := []struct {
		name string
		args []string
		bad  bool
	}{
		{name: "ok", args: []string{"2026-02-01", "2026-03-31"}},
		{name: "one arg", args: []string{"2026-02-01"}, bad: true},
		{name: "malformed", args: []string{"02/01/2026", "2026-03-31"}, bad: true},
		{name: "reversed", args: []string{"2026-03-31", "2026-02-01"}, bad: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			before := f.store.get(42)
			out := f.run(t, 42, "setdates", tt.args...)
			after := f.store.get(42)
			if tt.bad {
				if after.DateFrom != before.DateFrom || after.DateTo != before.DateTo {
					t.Fatalf("bad input must not change state; reply was %q", out)
				}
			} else if after.DateFrom != tt.args[0] || after.DateTo != tt.args[1] {
				t.Fatalf("dates not applied: %+v", after)
			}
		})
	}
}

func TestSetPriceValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.run(t, 42, "start")

	for _, bad := range [][]string{{}, {"abc"}, {"0"}, {"-5"}, {"1", "2"}} {
		f.run(t, 42, "setprice", bad...)
		if f.store.get(42).MaxPrice != 0 {
			t.Fatalf("invalid /setprice %v changed state", bad)
		}
	}

	f.run(t, 42, "setprice", "60000")
	if f.store.get(42).MaxPrice != 60000 {
		t.Fatal("valid price not applied")
	}
}

func TestTogglesAndEnable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.run(t, 42, "start")

	f.run(t, 42, "direct", "on")
	f.run(t, 42, "oneway", "off")
	if sub := f.store.get(42); !sub.Direct || sub.OneWay {
		t.Fatalf("toggles not applied: %+v", sub)
	}

	f.run(t, 42, "direct", "banana")
	if !f.store.get(42).Direct {
		t.Fatal("invalid toggle arg changed state")
	}

	out := f.run(t, 42, "on")
	if !f.store.get(42).Enabled {
		t.Fatal("/on did not enable")
	}
	if !strings.Contains(out, "incomplete") {
		t.Fatalf("enabling an incomplete watch should warn; reply = %q", out)
	}

	f.run(t, 42, "setdates", "2026-02-01", "2026-03-31")
	f.run(t, 42, "setprice", "60000")
	if out := f.run(t, 42, "on"); strings.Contains(out, "incomplete") {
		t.Fatalf("complete watch should enable cleanly; reply = %q", out)
	}

	f.run(t, 42, "off")
	if f.store.get(42).Enabled {
		t.Fatal("/off did not disable")
	}
}

func TestCommandsWithoutStart(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for _, c := range [][]string{
		{"setdates", "2026-02-01", "2026-03-31"},
		{"setprice", "60000"},
		{"direct", "on"},
		{"on"},
		{"status"},
	} {
		out := f.run(t, 42, c[0], c[1:]...)
		if !strings.Contains(out, "/start") {
			t.Fatalf("/%s without a watch should point at /start; reply = %q", c[0], out)
		}
		if f.store.get(42) != nil {
			t.Fatalf("/%s created state for an unknown chat", c[0])
		}
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.run(t, 42, "start")
	f.run(t, 42, "setdates", "2026-02-01", "2026-03-31")
	f.run(t, 42, "setprice", "60000")
	f.run(t, 42, "on")

	out := f.run(t, 42, "status")
	for _, want := range []string{"SVO → HKT", "2026-02-01 to 2026-03-31", "60 000 ₽", "Monitoring: on"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status missing %q:\n%s", want, out)
		}
	}
}
