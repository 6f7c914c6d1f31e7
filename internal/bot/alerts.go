package bot

import (
	"context"
	"errors"

	"farebot/internal/notifier"
	"farebot/internal/transport"
	"farebot/internal/watcher"
	logx "farebot/pkg/logx"
)

// AlertSender bridges the watcher to the notifier pipeline: it renders the
// alert and enqueues it. The price is already persisted by the time an alert
// gets here, so delivery problems are logged and swallowed.
type AlertSender struct {
	notify   *notifier.Service
	currency string
	log      logx.Logger
}

func NewAlertSender(notify *notifier.Service, currency string, log logx.Logger) *AlertSender {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &AlertSender{notify: notify, currency: currency, log: log}
}

func (s *AlertSender) Alert(ctx context.Context, a watcher.Alert) error {
	n := notifier.Notification{
		Target: transport.ChatTarget{ChatID: a.ChatID},
		Text:   AlertText(a, s.currency),
		Options: &transport.SendOptions{
			DisablePreview:     true,
			ReplyMarkupAdapter: AlertMarkup(a),
		},
	}
	err := s.notify.Notify(ctx, n)
	if errors.Is(err, notifier.ErrQueueFull) {
		// The price stays recorded either way; the next drop re-alerts.
		s.log.Warn("alert dropped, queue full", logx.Int64("chat_id", a.ChatID), logx.String("date", a.Date))
		return nil
	}
	return err
}
