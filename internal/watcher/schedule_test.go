package watcher

import (
	"testing"
	"time"
)

func TestParseScheduleIntervals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Duration
	}{
		{"1h", time.Hour},
		{"90m", 90 * time.Minute},
		{"2h30m", 2*time.Hour + 30*time.Minute},
		{"01:00", time.Hour},
		{"02:30", 2*time.Hour + 30*time.Minute},
		{"00:45", 45 * time.Minute},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			s, err := ParseSchedule(tt.in)
			if err != nil {
				t.Fatalf("ParseSchedule(%q): %v", tt.in, err)
			}
			got, ok := s.Interval()
			if !ok || got != tt.want {
				t.Fatalf("interval = %v ok=%v, want %v", got, ok, tt.want)
			}
			from := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
			if next := s.Next(from); next != from.Add(tt.want) {
				t.Fatalf("Next = %v", next)
			}
		})
	}
}

func TestParseScheduleCron(t *testing.T) {
	t.Parallel()

	s, err := ParseSchedule("0 * * * *")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	if _, ok := s.Interval(); ok {
		t.Fatal("cron spec must not parse as interval")
	}
	from := time.Date(2026, 2, 1, 12, 30, 0, 0, time.UTC)
	want := time.Date(2026, 2, 1, 13, 0, 0, 0, time.UTC)
	if next := s.Next(from); !next.Equal(want) {
		t.Fatalf("Next = %v, want %v", next, want)
	}

	if _, err := ParseSchedule("@hourly"); err != nil {
		t.Fatalf("descriptor spec: %v", err)
	}
}

func TestParseScheduleRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "  ", "soon", "0:0x", "* * bogus", "-5m", "00:00"} {
		if _, err := ParseSchedule(in); err == nil {
			t.Fatalf("ParseSchedule(%q) must fail", in)
		}
	}
}
