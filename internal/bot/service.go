package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"farebot/internal/subscription"
	"farebot/internal/transport"
	"farebot/internal/transport/telegram/router"
	logx "farebot/pkg/logx"
)

// Defaults seed newly created subscriptions.
type Defaults struct {
	Origin      string
	Destination string
}

// Service owns the chat-facing command surface. Every mutating command is a
// read-modify-write of the whole store; bad input is answered with a
// corrective message and leaves state untouched.
type Service struct {
	store    subscription.Store
	defaults Defaults
	currency string
	log      logx.Logger
}

func New(store subscription.Store, defaults Defaults, currency string, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	defaults.Origin = strings.ToUpper(strings.TrimSpace(defaults.Origin))
	defaults.Destination = strings.ToUpper(strings.TrimSpace(defaults.Destination))
	return &Service{
		store:    store,
		defaults: defaults,
		currency: currency,
		log:      log,
	}
}

func (s *Service) Commands() []router.Command {
	return []router.Command{
		{
			Name:        "start",
			Description: "create a price watch for this chat",
			Usage:       "/start",
			Handle:      s.handleStart,
		},
		{
			Name:        "setdates",
			Description: "set the travel date window",
			Usage:       "/setdates YYYY-MM-DD YYYY-MM-DD",
			Handle:      s.handleSetDates,
		},
		{
			Name:        "setprice",
			Description: "set the max price to alert under",
			Usage:       "/setprice 60000",
			Handle:      s.handleSetPrice,
		},
		{
			Name:        "direct",
			Description: "only direct flights",
			Usage:       "/direct on|off",
			Handle:      s.handleDirect,
		},
		{
			Name:        "oneway",
			Description: "one-way or round-trip links",
			Usage:       "/oneway on|off",
			Handle:      s.handleOneWay,
		},
		{
			Name:        "on",
			Description: "enable monitoring",
			Usage:       "/on",
			Handle:      s.handleOn,
		},
		{
			Name:        "off",
			Description: "disable monitoring",
			Usage:       "/off",
			Handle:      s.handleOff,
		},
		{
			Name:        "status",
			Description: "show the current watch",
			Usage:       "/status",
			Handle:      s.handleStatus,
		},
	}
}

func reply(ctx context.Context, req *router.Request, text string) error {
	_, err := req.Adapter.SendText(ctx, req.Chat, text, &transport.SendOptions{DisablePreview: true})
	return err
}

// mutate runs fn against the chat's subscription under a fresh load and
// persists the result. fn returns the confirmation text for the user.
// When the chat has no subscription yet, fn receives nil and may create one
// by returning it.
func (s *Service) mutate(ctx context.Context, chatID int64, fn func(sub *subscription.Subscription) (*subscription.Subscription, string, error)) (string, error) {
	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return "", fmt.Errorf("load: %w", err)
	}
	sub, text, err := fn(all[chatID])
	if err != nil || sub == nil {
		return text, err
	}
	all[chatID] = sub
	if err := s.store.SaveAll(ctx, all); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	return text, nil
}

// respond sends either the command's confirmation or a generic failure note.
func (s *Service) respond(ctx context.Context, req *router.Request, text string, err error) error {
	if err != nil {
		s.log.Warn("command failed", logx.String("cmd", req.Command), logx.Int64("chat_id", req.Chat.ChatID), logx.Err(err))
		return reply(ctx, req, "Something went wrong, try again later.")
	}
	return reply(ctx, req, text)
}

const missingSubText = "No watch for this chat yet. Send /start first."

func (s *Service) handleStart(ctx context.Context, req *router.Request) error {
	text, err := s.mutate(ctx, req.Chat.ChatID, func(sub *subscription.Subscription) (*subscription.Subscription, string, error) {
		if sub == nil {
			sub = subscription.New(s.defaults.Origin, s.defaults.Destination)
		}
		return sub, "Watching " + routeLine(sub) + ".\n" +
			"Set it up:\n" +
			"/setdates YYYY-MM-DD YYYY-MM-DD\n" +
			"/setprice 60000\n" +
			"/direct on|off, /oneway on|off\n" +
			"Then /on to start, /status to check.", nil
	})
	return s.respond(ctx, req, text, err)
}

func (s *Service) handleSetDates(ctx context.Context, req *router.Request) error {
	if len(req.Args) != 2 {
		return reply(ctx, req, "Usage: /setdates YYYY-MM-DD YYYY-MM-DD")
	}
	from, err := time.Parse(subscription.DateLayout, req.Args[0])
	if err != nil {
		return reply(ctx, req, "First date must look like 2026-02-01.")
	}
	to, err := time.Parse(subscription.DateLayout, req.Args[1])
	if err != nil {
		return reply(ctx, req, "Second date must look like 2026-03-31.")
	}
	if from.After(to) {
		return reply(ctx, req, "The first date must not be after the second.")
	}

	text, err := s.mutate(ctx, req.Chat.ChatID, func(sub *subscription.Subscription) (*subscription.Subscription, string, error) {
		if sub == nil {
			return nil, missingSubText, nil
		}
		sub.DateFrom = req.Args[0]
		sub.DateTo = req.Args[1]
		return sub, "Dates set: " + sub.DateFrom + " to " + sub.DateTo + ".", nil
	})
	return s.respond(ctx, req, text, err)
}

func (s *Service) handleSetPrice(ctx context.Context, req *router.Request) error {
	if len(req.Args) != 1 {
		return reply(ctx, req, "Usage: /setprice 60000")
	}
	price, err := strconv.Atoi(req.Args[0])
	if err != nil || price <= 0 {
		return reply(ctx, req, "Price must be a positive whole number.")
	}

	text, err := s.mutate(ctx, req.Chat.ChatID, func(sub *subscription.Subscription) (*subscription.Subscription, string, error) {
		if sub == nil {
			return nil, missingSubText, nil
		}
		sub.MaxPrice = price
		return sub, "Will alert on prices up to " + formatPrice(price, s.currency) + ".", nil
	})
	return s.respond(ctx, req, text, err)
}

func (s *Service) handleDirect(ctx context.Context, req *router.Request) error {
	return s.toggle(ctx, req, "direct", func(sub *subscription.Subscription, on bool) string {
		sub.Direct = on
		if on {
			return "Direct flights only."
		}
		return "Flights with transfers included."
	})
}

func (s *Service) handleOneWay(ctx context.Context, req *router.Request) error {
	return s.toggle(ctx, req, "oneway", func(sub *subscription.Subscription, on bool) string {
		sub.OneWay = on
		if on {
			return "Looking for one-way tickets."
		}
		return "Looking for round trips."
	})
}

func (s *Service) toggle(ctx context.Context, req *router.Request, name string, apply func(*subscription.Subscription, bool) string) error {
	if len(req.Args) != 1 {
		return reply(ctx, req, "Usage: /"+name+" on|off")
	}
	var on bool
	switch strings.ToLower(req.Args[0]) {
	case "on", "yes", "true", "1":
		on = true
	case "off", "no", "false", "0":
		on = false
	default:
		return reply(ctx, req, "Usage: /"+name+" on|off")
	}

	text, err := s.mutate(ctx, req.Chat.ChatID, func(sub *subscription.Subscription) (*subscription.Subscription, string, error) {
		if sub == nil {
			return nil, missingSubText, nil
		}
		return sub, apply(sub, on), nil
	})
	return s.respond(ctx, req, text, err)
}

func (s *Service) handleOn(ctx context.Context, req *router.Request) error {
	text, err := s.mutate(ctx, req.Chat.ChatID, func(sub *subscription.Subscription) (*subscription.Subscription, string, error) {
		if sub == nil {
			return nil, missingSubText, nil
		}
		sub.Enabled = true
		if !sub.Eligible() {
			return sub, "Monitoring on, but the watch is incomplete. Set /setdates and /setprice.", nil
		}
		return sub, "Monitoring on.", nil
	})
	return s.respond(ctx, req, text, err)
}

func (s *Service) handleOff(ctx context.Context, req *router.Request) error {
	text, err := s.mutate(ctx, req.Chat.ChatID, func(sub *subscription.Subscription) (*subscription.Subscription, string, error) {
		if sub == nil {
			return nil, missingSubText, nil
		}
		sub.Enabled = false
		return sub, "Monitoring off.", nil
	})
	return s.respond(ctx, req, text, err)
}

func (s *Service) handleStatus(ctx context.Context, req *router.Request) error {
	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return s.respond(ctx, req, "", err)
	}
	sub := all[req.Chat.ChatID]
	if sub == nil {
		return reply(ctx, req, missingSubText)
	}
	return reply(ctx, req, statusText(sub, s.currency))
}

func routeLine(sub *subscription.Subscription) string {
	return sub.Origin + " → " + sub.Destination
}

func statusText(sub *subscription.Subscription, currency string) string {
	var b strings.Builder
	b.WriteString("Route: " + routeLine(sub) + "\n")
	if sub.DateFrom != "" || sub.DateTo != "" {
		b.WriteString("Dates: " + sub.DateFrom + " to " + sub.DateTo + "\n")
	} else {
		b.WriteString("Dates: not set\n")
	}
	if sub.MaxPrice > 0 {
		b.WriteString("Max price: " + formatPrice(sub.MaxPrice, currency) + "\n")
	} else {
		b.WriteString("Max price: not set\n")
	}
	b.WriteString("Direct only: " + onOff(sub.Direct) + "\n")
	b.WriteString("One-way: " + onOff(sub.OneWay) + "\n")
	b.WriteString("Monitoring: " + onOff(sub.Enabled))
	if !sub.Eligible() && sub.Enabled {
		b.WriteString(" (incomplete, will be skipped)")
	}
	if n := len(sub.Notified); n > 0 {
		b.WriteString("\nAlerts recorded: " + strconv.Itoa(n))
	}
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
