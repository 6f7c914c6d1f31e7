package router

import (
	"context"
	"runtime"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	rtsup "farebot/internal/runtime/supervisor"
	kit "farebot/internal/transport"
	logx "farebot/pkg/logx"
)

type Access int

const (
	AccessEveryone Access = iota
	AccessOwnerOnly
)

type Command struct {
	Name        string // command word without the leading slash
	Description string
	Usage       string
	Access      Access
	Timeout     time.Duration // optional per-command override
	Handle      HandlerFunc
}

type Request struct {
	Update  kit.Update
	Chat    kit.ChatTarget
	FromID  int64
	Command string
	Args    []string
	ReqID   string

	Adapter kit.Adapter
	Logger  logx.Logger
}

// Manager routes inbound updates to registered command handlers through a
// bounded worker pool.
type Manager struct {
	mu   sync.RWMutex
	cmds map[string]Command

	owners []int64

	log     logx.Logger
	adapter kit.Adapter

	runMu   sync.Mutex
	running bool
	sup     *rtsup.Supervisor

	jobs chan func()
}

func NewManager(log logx.Logger, adapter kit.Adapter, owners []int64) *Manager {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Manager{
		cmds:    map[string]Command{},
		log:     log,
		adapter: adapter,
		owners:  append([]int64(nil), owners...),
		jobs:    make(chan func(), 256),
	}
}

// SetOwners updates the owner list used for AccessOwnerOnly checks.
// Safe to call during hot-reload.
func (m *Manager) SetOwners(owners []int64) {
	cp := append([]int64(nil), owners...)
	m.mu.Lock()
	m.owners = cp
	m.mu.Unlock()
}

func (m *Manager) ownersSnapshot() []int64 {
	m.mu.RLock()
	cp := append([]int64(nil), m.owners...)
	m.mu.RUnlock()
	return cp
}

// SetRegistry installs the command set. A /help command is always injected.
func (m *Manager) SetRegistry(cmds []Command) {
	helper := Command{
		Name:        "help",
		Description: "show available commands",
		Usage:       "/help",
		Access:      AccessEveryone,
		Handle: func(ctx context.Context, req *Request) error {
			_, _ = req.Adapter.SendText(ctx, req.Chat, m.helpText(), &kit.SendOptions{DisablePreview: true})
			return nil
		},
	}
	cmds = append(cmds, helper)

	byName := make(map[string]Command, len(cmds))
	for _, c := range cmds {
		name := strings.TrimSpace(strings.ToLower(c.Name))
		if name == "" || c.Handle == nil {
			continue
		}
		c.Name = name
		byName[name] = c
	}

	m.mu.Lock()
	m.cmds = byName
	m.mu.Unlock()

	// Best-effort Telegram /menu autocomplete update (non-blocking).
	if up, ok := m.adapter.(kit.CommandMenuUpdater); ok {
		menu := make([]kit.BotCommand, 0, len(byName))
		for _, c := range byName {
			menu = append(menu, kit.BotCommand{Command: c.Name, Description: c.Description})
		}
		sort.Slice(menu, func(i, j int) bool { return menu[i].Command < menu[j].Command })
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = up.UpdateMenuCommands(ctx, menu)
		}()
	}
}

func (m *Manager) helpText() string {
	m.mu.RLock()
	cmds := make([]Command, 0, len(m.cmds))
	for _, c := range m.cmds {
		cmds = append(cmds, c)
	}
	m.mu.RUnlock()

	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })

	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, c := range cmds {
		usage := c.Usage
		if usage == "" {
			usage = "/" + c.Name
		}
		b.WriteString(usage)
		if c.Description != "" {
			b.WriteString(" — ")
			b.WriteString(c.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// tryEnqueue is a panic-safe enqueue helper (handles the jobs channel being closed).
func (m *Manager) tryEnqueue(fn func()) (ok bool) {
	if fn == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	select {
	case m.jobs <- fn:
		return true
	default:
		return false
	}
}

func (m *Manager) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}

	sup := rtsup.New(ctx,
		rtsup.WithLogger(m.log.With(logx.String("comp", "telegram.router"))),
		rtsup.WithCancelOnError(false),
	)
	m.runMu.Lock()
	m.sup = sup
	m.running = true
	m.runMu.Unlock()

	m.log.Info("command dispatcher started", logx.Int("workers", workers))

	var closeOnce sync.Once
	closeJobs := func() {
		closeOnce.Do(func() {
			m.runMu.Lock()
			m.running = false
			m.runMu.Unlock()
			close(m.jobs)
		})
	}

	for i := 0; i < workers; i++ {
		name := "command.worker." + strconv.Itoa(i)
		sup.GoRestart(name, func(c context.Context) error {
			for {
				select {
				case <-c.Done():
					return nil
				case job, ok := <-m.jobs:
					if !ok {
						return nil
					}
					if job == nil {
						continue
					}
					// Defensive: middleware already recovers, but keep the
					// worker alive if a job panics anyway.
					func() {
						defer func() {
							if r := recover(); r != nil {
								m.log.Error("panic in command job", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
							}
						}()
						job()
					}()
				}
			}
		},
			rtsup.WithRestartBackoff(200*time.Millisecond, 5*time.Second),
			rtsup.WithPublishFirstError(true),
		)
	}

	defer func() {
		closeJobs()
		wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = sup.Wait(wctx)
		cancel()
		m.log.Info("command dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if up.Kind == kit.UpdateMessage {
				m.routeMessage(ctx, up)
			}
		}
	}
}

func (m *Manager) routeMessage(root context.Context, up kit.Update) {
	if up.Message == nil {
		return
	}
	msg := up.Message
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return
	}
	word := strings.TrimPrefix(parts[0], "/")
	if i := strings.IndexByte(word, '@'); i >= 0 {
		word = word[:i]
	}
	word = strings.ToLower(word)
	args := parts[1:]

	m.mu.RLock()
	cmd, ok := m.cmds[word]
	m.mu.RUnlock()
	if !ok {
		_, _ = m.adapter.SendText(root, kit.ChatTarget{ChatID: msg.ChatID}, "Unknown command. Try /help", nil)
		return
	}

	owners := m.ownersSnapshot()
	if cmd.Access == AccessOwnerOnly && !isOwner(msg.FromID, owners) {
		_, _ = m.adapter.SendText(root, kit.ChatTarget{ChatID: msg.ChatID}, "unauthorized", nil)
		return
	}

	rid := newReqID()
	reqLog := m.log.With(
		logx.String("rid", rid),
		logx.Int64("chat_id", msg.ChatID),
		logx.Int64("from_id", msg.FromID),
		logx.String("cmd", cmd.Name),
	)

	req := &Request{
		Update:  up,
		Chat:    kit.ChatTarget{ChatID: msg.ChatID},
		FromID:  msg.FromID,
		Command: cmd.Name,
		Args:    args,
		ReqID:   rid,
		Adapter: m.adapter,
		Logger:  reqLog,
	}

	final := Chain(
		cmd.Handle,
		MWPanicRecover(m.log),
		MWRequestLog(m.log),
		MWTimeout(cmd.Timeout),
	)

	if !m.tryEnqueue(func() { _ = final(root, req) }) {
		_, _ = m.adapter.SendText(root, req.Chat, "busy, try again", nil)
	}
}

func isOwner(id int64, owners []int64) bool {
	for _, o := range owners {
		if o == id {
			return true
		}
	}
	return false
}

func newReqID() string {
	id := uuid.NewString()
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
