package subscription

import (
	"strings"
	"time"
)

// DateLayout is the wire format for travel dates (day precision).
const DateLayout = "2006-01-02"

// Subscription is one chat's watch configuration.
//
// DateFrom/DateTo/MaxPrice are required before the watcher will check the
// subscription; Enabled is the master switch. Notified maps a route-date key
// to the last price an alert was sent for, and only ever decreases per key.
type Subscription struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`

	MaxPrice int  `json:"max_price,omitempty"`
	Direct   bool `json:"direct"`
	OneWay   bool `json:"one_way"`
	Enabled  bool `json:"enabled"`

	Notified map[string]int `json:"notified,omitempty"`
}

// New returns a subscription with defaults: monitoring off, one-way trips,
// empty history.
func New(origin, destination string) *Subscription {
	return &Subscription{
		Origin:      strings.ToUpper(strings.TrimSpace(origin)),
		Destination: strings.ToUpper(strings.TrimSpace(destination)),
		OneWay:      true,
		Notified:    map[string]int{},
	}
}

// Eligible reports whether the watcher should check this subscription:
// enabled, both dates set and ordered, and a positive price threshold.
func (s *Subscription) Eligible() bool {
	if s == nil || !s.Enabled || s.MaxPrice <= 0 {
		return false
	}
	from, to, err := s.DateRange()
	if err != nil {
		return false
	}
	return !from.After(to)
}

// DateRange parses the configured date window.
func (s *Subscription) DateRange() (from, to time.Time, err error) {
	from, err = time.Parse(DateLayout, s.DateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err = time.Parse(DateLayout, s.DateTo)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// Key builds the route-date key used for notification dedup.
func Key(origin, destination string, day time.Time) string {
	return origin + "-" + destination + "-" + day.Format(DateLayout)
}

// Clone returns a deep copy, so snapshots can be mutated without aliasing
// the store's maps.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Notified = make(map[string]int, len(s.Notified))
	for k, v := range s.Notified {
		cp.Notified[k] = v
	}
	return &cp
}
