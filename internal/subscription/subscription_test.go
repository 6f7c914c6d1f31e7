package subscription

import (
	"testing"
	"time"
)

func TestEligible(t *testing.T) {
	t.Parallel()

	base := func() *Subscription {
		s := New("SVO", "HKT")
		s.DateFrom = "2026-02-01"
		s.DateTo = "2026-02-02"
		s.MaxPrice = 60000
		s.Enabled = true
		return s
	}

	tests := []struct {
		name string
		mut  func(*Subscription)
		want bool
	}{
		{name: "complete", mut: func(s *Subscription) {}, want: true},
		{name: "disabled", mut: func(s *Subscription) { s.Enabled = false }, want: false},
		{name: "missing date_from", mut: func(s *Subscription) { s.DateFrom = "" }, want: false},
		{name: "missing date_to", mut: func(s *Subscription) { s.DateTo = "" }, want: false},
		{name: "missing max_price", mut: func(s *Subscription) { s.MaxPrice = 0 }, want: false},
		{name: "negative max_price", mut: func(s *Subscription) { s.MaxPrice = -1 }, want: false},
		{name: "reversed range", mut: func(s *Subscription) { s.DateFrom, s.DateTo = s.DateTo, s.DateFrom }, want: false},
		{name: "malformed date", mut: func(s *Subscription) { s.DateFrom = "02/01/2026" }, want: false},
		{name: "single day", mut: func(s *Subscription) { s.DateTo = s.DateFrom }, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mut(s)
			if got := s.Eligible(); got != tt.want {
				t.Fatalf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKey(t *testing.T) {
	t.Parallel()
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if got := Key("SVO", "HKT", day); got != "SVO-HKT-2026-02-01" {
		t.Fatalf("Key = %q", got)
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()
	s := New(" svo ", "hkt")
	if s.Origin != "SVO" || s.Destination != "HKT" {
		t.Fatalf("codes not normalized: %q %q", s.Origin, s.Destination)
	}
	if s.Enabled {
		t.Fatal("new subscriptions must start disabled")
	}
	if !s.OneWay {
		t.Fatal("new subscriptions default to one-way")
	}
	if s.Notified == nil {
		t.Fatal("history map must be initialized")
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()
	s := New("SVO", "HKT")
	s.Notified["SVO-HKT-2026-02-01"] = 55000

	cp := s.Clone()
	cp.Notified["SVO-HKT-2026-02-01"] = 1

	if s.Notified["SVO-HKT-2026-02-01"] != 55000 {
		t.Fatal("clone shares the history map with the original")
	}
}
