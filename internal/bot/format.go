package bot

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"farebot/internal/watcher"
)

// AlertText renders a price alert. Plain text, no markup; the offer link
// rides on an inline button instead.
func AlertText(a watcher.Alert, currency string) string {
	var b strings.Builder
	b.WriteString(a.Origin + " → " + a.Destination + " on " + a.Date + "\n")
	b.WriteString(formatPrice(a.Price, currency))
	if a.PrevPrice > 0 {
		b.WriteString(" (was " + formatPrice(a.PrevPrice, currency) + ")")
	}
	b.WriteString("\n")
	if a.Transfers != nil {
		switch *a.Transfers {
		case 0:
			b.WriteString("Direct flight\n")
		case 1:
			b.WriteString("1 transfer\n")
		default:
			b.WriteString(strconv.Itoa(*a.Transfers) + " transfers\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// AlertMarkup builds the inline "open offer" button, or nil when the alert
// carries no link.
func AlertMarkup(a watcher.Alert) *tele.ReplyMarkup {
	if strings.TrimSpace(a.Link) == "" {
		return nil
	}
	markup := &tele.ReplyMarkup{}
	btn := markup.URL("Open on Aviasales", a.Link)
	markup.Inline(markup.Row(btn))
	return markup
}

// formatPrice renders an amount with thin group separation: 55000 -> "55 000".
func formatPrice(amount int, currency string) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.Itoa(amount)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte(' ')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(' ')
		}
	}
	return b.String() + " " + currencySymbol(currency)
}

func currencySymbol(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "", "rub":
		return "₽"
	case "usd":
		return "$"
	case "eur":
		return "€"
	default:
		return strings.ToUpper(code)
	}
}
