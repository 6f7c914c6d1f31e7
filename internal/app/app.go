package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"farebot/internal/aviasales"
	"farebot/internal/bot"
	"farebot/internal/config"
	"farebot/internal/notifier"
	"farebot/internal/runtime/supervisor"
	"farebot/internal/subscription"
	kit "farebot/internal/transport"
	telegram "farebot/internal/transport/telegram/adapter"
	"farebot/internal/transport/telegram/router"
	"farebot/internal/watcher"
	logx "farebot/pkg/logx"
)

// App wires the whole bot: config, logging, storage, price source, the
// notifier pipeline, the watcher, and the Telegram surface.
type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	store  subscription.Store
	prices *aviasales.Client

	adapter kit.Adapter
	routes  *router.Manager
	cmds    *bot.Service

	notif *notifier.Service
	watch *watcher.Service

	updates chan kit.Update
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	// The boot config passes the exact same checks as a hot-reloaded one.
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	storeCfg, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := subscription.Open(storeCfg, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	avCfg, err := mapAviasalesConfig(cfg)
	if err != nil {
		return nil, err
	}
	prices := aviasales.New(avCfg, log.With(logx.String("comp", "aviasales")))

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return nil, err
	}
	notif := notifier.New(ncfg, ad, log.With(logx.String("comp", "notifier")))

	alerts := bot.NewAlertSender(notif, avCfg.Currency, log.With(logx.String("comp", "alerts")))

	wcfg, err := mapWatcherConfig(cfg)
	if err != nil {
		return nil, err
	}
	w := watcher.New(wcfg, store, prices, alerts, log.With(logx.String("comp", "watcher")))
	watch, err := watcher.NewService(wcfg, w, log.With(logx.String("comp", "watcher")))
	if err != nil {
		return nil, err
	}

	cmds := bot.New(store, bot.Defaults{
		Origin:      cfg.Watcher.DefaultOrigin,
		Destination: cfg.Watcher.DefaultDestination,
	}, avCfg.Currency, log.With(logx.String("comp", "commands")))

	routes := router.NewManager(log.With(logx.String("comp", "router")), ad, cfg.Telegram.OwnerUserIDs)
	routes.SetRegistry(cmds.Commands())

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		prices:  prices,
		adapter: ad,
		routes:  routes,
		cmds:    cmds,
		notif:   notif,
		watch:   watch,
		updates: make(chan kit.Update, 256),
	}, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true))

	// Transactional hot-reload: validate before commit/publish so a broken
	// edit never reaches running components.
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(c context.Context, cfg *config.Config) error {
		return validateConfig(cfg)
	})

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}
	if a.notif.Enabled() {
		a.notif.Start(a.sup.Context())
	}
	if err := a.watch.Start(a.sup.Context()); err != nil {
		return err
	}

	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.routes.DispatchLoop(c, a.updates)
	})

	// Hot reload fan-out.
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				a.applyConfig(c, newCfg)
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("app started")
	return nil
}

func (a *App) applyConfig(ctx context.Context, cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	a.routes.SetOwners(cfg.Telegram.OwnerUserIDs)

	// The validator already vetted these; mapping errors here mean a race
	// with a newer config and are safe to skip.
	if ncfg, err := mapNotifierConfig(cfg); err == nil {
		prev := a.notif.Enabled()
		a.notif.Apply(ncfg)
		switch {
		case prev && !ncfg.Enabled:
			a.log.Info("notifier disabled via config")
			stopCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			a.notif.Stop(stopCtx)
			cancel()
		case !prev && ncfg.Enabled:
			a.log.Info("notifier enabled via config")
			a.notif.Start(ctx)
		}
	}

	if wcfg, err := mapWatcherConfig(cfg); err == nil {
		if err := a.watch.Apply(wcfg); err != nil {
			a.log.Warn("invalid watcher config; keeping previous", logx.Err(err))
		}
	}

	a.log.Info("config reloaded")
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.log.Info("stopping")

	// Cancel the run context first so background loops start unwinding.
	a.sup.Cancel()

	// Bound each shutdown step so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name))
		}
	}

	step("watcher", 2*time.Second, func(c context.Context) error { return a.watch.Stop(c) })
	step("notifier", 2*time.Second, func(c context.Context) error { a.notif.Stop(c); return nil })
	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	step("storage", 1*time.Second, func(c context.Context) error { return a.store.Close() })
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

func scheduleOrDefault(raw string) string {
	if raw == "" {
		return "1h"
	}
	return raw
}

// validateConfig is the single gate for configs entering the app, applied both
// to the initial file at boot and to every hot-reload candidate. It runs the
// structural checks plus the component mappings that can fail on bad values.
func validateConfig(cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if _, err := mapNotifierConfig(cfg); err != nil {
		return err
	}
	wcfg, err := mapWatcherConfig(cfg)
	if err != nil {
		return err
	}
	if _, err := watcher.ParseSchedule(scheduleOrDefault(wcfg.Schedule)); err != nil {
		return fmt.Errorf("watcher.schedule: %w", err)
	}
	return nil
}
