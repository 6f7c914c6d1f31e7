package watcher

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"farebot/internal/aviasales"
	"farebot/internal/subscription"
	logx "farebot/pkg/logx"
)

// Watcher runs price-check cycles over all subscriptions.
//
// A cycle is best-effort per chat: one subscriber's failure (or panic in a
// collaborator) never blocks the others. Prices are persisted before the
// alert is handed to the Alerter, so a crash between the two at worst loses
// a notification, never repeats one.
type Watcher struct {
	store   subscription.Store
	source  PriceSource
	alerter Alerter
	clock   Clock
	log     logx.Logger
	hook    Hook

	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter
}

type Option func(*Watcher)

func WithClock(c Clock) Option {
	return func(w *Watcher) {
		if c != nil {
			w.clock = c
		}
	}
}

func WithHook(h Hook) Option {
	return func(w *Watcher) { w.hook = h }
}

func New(cfg Config, store subscription.Store, source PriceSource, alerter Alerter, log logx.Logger, opts ...Option) *Watcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	w := &Watcher{
		store:   store,
		source:  source,
		alerter: alerter,
		clock:   systemClock{},
		log:     log,
	}
	for _, o := range opts {
		o(w)
	}
	w.applyLocked(cfg)
	return w
}

// Apply swaps pacing and rate limits at runtime. The schedule itself is the
// Service's concern.
func (w *Watcher) Apply(cfg Config) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.applyLocked(cfg)
}

func (w *Watcher) applyLocked(cfg Config) {
	w.cfg = cfg
	if cfg.RequestsPerSec > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.RequestsPerSec)
	} else {
		w.limiter = nil
	}
}

func (w *Watcher) snapshot() (Config, *rate.Limiter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg, w.limiter
}

// RunCycle checks every subscription once. It returns an error only when the
// cycle could not run at all (store unreadable, context canceled); per-chat
// failures are counted in the stats instead.
func (w *Watcher) RunCycle(ctx context.Context) (CycleStats, error) {
	cfg, limiter := w.snapshot()
	stats := CycleStats{Started: w.clock.Now()}
	defer func() {
		stats.Duration = w.clock.Now().Sub(stats.Started)
		if w.hook != nil {
			w.hook(stats)
		}
	}()

	subs, err := w.store.LoadAll(ctx)
	if err != nil {
		return stats, fmt.Errorf("load subscriptions: %w", err)
	}

	chatIDs := make([]int64, 0, len(subs))
	for id := range subs {
		chatIDs = append(chatIDs, id)
	}
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })

	for i, chatID := range chatIDs {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		sub := subs[chatID]
		if !sub.Eligible() {
			stats.ChatsSkipped++
			continue
		}
		stats.ChatsChecked++

		alerts, days, err := w.checkChat(ctx, cfg, limiter, chatID, sub.Clone())
		stats.DaysQueried += days
		stats.AlertsSent += alerts
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.ChatsFailed++
			w.log.Warn("subscriber check failed", logx.Int64("chat_id", chatID), logx.Err(err))
		}

		if cfg.ChatPacing > 0 && i < len(chatIDs)-1 {
			if err := w.clock.Sleep(ctx, cfg.ChatPacing); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

// checkChat scans the subscription's date window day by day. The sub is a
// private clone; its Notified map tracks in-cycle decisions so a later day
// sees prices persisted for earlier ones.
func (w *Watcher) checkChat(ctx context.Context, cfg Config, limiter *rate.Limiter, chatID int64, sub *subscription.Subscription) (alerts, days int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	from, to, err := sub.DateRange()
	if err != nil {
		return 0, 0, err
	}

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			return alerts, days, ctx.Err()
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return alerts, days, err
			}
		}

		q := aviasales.Query{
			Origin:      sub.Origin,
			Destination: sub.Destination,
			DepartDate:  day.Format(subscription.DateLayout),
			OneWay:      sub.OneWay,
			Direct:      sub.Direct,
			Limit:       cfg.Limit,
		}
		days++

		offers, err := w.source.Search(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return alerts, days, ctx.Err()
			}
			// An upstream hiccup on one day is the same as no offers.
			w.log.Warn("price search failed",
				logx.Int64("chat_id", chatID),
				logx.String("date", q.DepartDate),
				logx.Err(err))
			continue
		}

		best, ok := aviasales.BestOffer(offers)
		if !ok {
			continue
		}

		key := subscription.Key(sub.Origin, sub.Destination, day)
		notify, _ := subscription.Evaluate(key, best.Price, sub.MaxPrice, sub.Notified)
		if !notify {
			continue
		}
		prev := sub.Notified[key]

		if err := w.persist(ctx, chatID, key, best.Price); err != nil {
			return alerts, days, fmt.Errorf("persist %s: %w", key, err)
		}
		sub.Notified[key] = best.Price

		a := Alert{
			ChatID:      chatID,
			Origin:      sub.Origin,
			Destination: sub.Destination,
			Date:        q.DepartDate,
			Price:       best.Price,
			PrevPrice:   prev,
			Transfers:   best.Transfers,
			Link:        w.source.OfferLink(best, q),
		}
		if err := w.alerter.Alert(ctx, a); err != nil {
			w.log.Warn("alert dispatch failed", logx.Int64("chat_id", chatID), logx.String("key", key), logx.Err(err))
		} else {
			alerts++
		}
	}
	return alerts, days, nil
}

// persist records the alerted price under the chat's history via a fresh
// read-modify-write, so concurrently edited fields of other chats (and of
// this chat) are not clobbered by the cycle's stale snapshot.
func (w *Watcher) persist(ctx context.Context, chatID int64, key string, price int) error {
	all, err := w.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	cur := all[chatID]
	if cur == nil {
		// Subscription deleted mid-cycle; nothing to record against.
		return nil
	}
	if cur.Notified == nil {
		cur.Notified = map[string]int{}
	}
	cur.Notified[key] = price
	all[chatID] = cur
	return w.store.SaveAll(ctx, all)
}
