package bot

import (
	"strings"
	"testing"

	"farebot/internal/watcher"
)

func TestFormatPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount   int
		currency string
		want     string
	}{
		{900, "rub", "900 ₽"},
		{55000, "rub", "55 000 ₽"},
		{1234567, "rub", "1 234 567 ₽"},
		{55000, "usd", "55 000 $"},
		{55000, "thb", "55 000 THB"},
	}
	for _, tt := range tests {
		if got := formatPrice(tt.amount, tt.currency); got != tt.want {
			t.Errorf("formatPrice(%d, %q) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestAlertText(t *testing.T) {
	t.Parallel()
	one := 1

	a := watcher.Alert{
		ChatID:      1,
		Origin:      "SVO",
		Destination: "HKT",
		Date:        "2026-02-01",
		Price:       55000,
		Transfers:   &one,
	}
	got := AlertText(a, "rub")
	for _, want := range []string{"SVO → HKT", "2026-02-01", "55 000 ₽", "1 transfer"} {
		if !strings.Contains(got, want) {
			t.Errorf("alert text missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "was") {
		t.Errorf("first alert must not show a previous price:\n%s", got)
	}

	a.PrevPrice = 60000
	got = AlertText(a, "rub")
	if !strings.Contains(got, "(was 60 000 ₽)") {
		t.Errorf("improvement alert missing previous price:\n%s", got)
	}

	zero := 0
	a.Transfers = &zero
	if got = AlertText(a, "rub"); !strings.Contains(got, "Direct flight") {
		t.Errorf("zero transfers should read as direct:\n%s", got)
	}

	a.Transfers = nil
	if got = AlertText(a, "rub"); strings.Contains(got, "transfer") {
		t.Errorf("unknown transfers must be omitted:\n%s", got)
	}
}

func TestAlertMarkup(t *testing.T) {
	t.Parallel()

	if m := AlertMarkup(watcher.Alert{}); m != nil {
		t.Fatal("no link, no button")
	}

	m := AlertMarkup(watcher.Alert{Link: "https://search.example.com/flights/?x=1"})
	if m == nil || len(m.InlineKeyboard) != 1 || len(m.InlineKeyboard[0]) != 1 {
		t.Fatalf("markup = %+v", m)
	}
	if m.InlineKeyboard[0][0].URL != "https://search.example.com/flights/?x=1" {
		t.Fatalf("button url = %q", m.InlineKeyboard[0][0].URL)
	}
}
