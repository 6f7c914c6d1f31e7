package watcher

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule is a parsed trigger spec: either a cron expression or a fixed
// interval.
type Schedule struct {
	cron  cron.Schedule // nil for intervals
	every time.Duration
	raw   string
}

func (s Schedule) String() string { return s.raw }

// Interval reports whether the schedule is a fixed interval and its period.
func (s Schedule) Interval() (time.Duration, bool) {
	if s.cron != nil {
		return 0, false
	}
	return s.every, true
}

// Next returns the first trigger time strictly after from.
func (s Schedule) Next(from time.Time) time.Time {
	if s.cron != nil {
		return s.cron.Next(from)
	}
	return from.Add(s.every)
}

var (
	scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	reHHMM         = regexp.MustCompile(`^\d{1,3}:\d{2}$`)
)

// ParseSchedule parses a schedule string.
//
// Supported forms:
//   - Cron (crontab.guru-style): "*/5 * * * *", "0 * * * *", "@hourly"
//   - Go duration: "1h", "90m", "2h30m"
//   - HH:MM interval: "01:00" (hourly), "02:30"
//
// Anything with whitespace or a leading '@' parses as cron; the rest as an
// interval.
func ParseSchedule(raw string) (Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Schedule{}, fmt.Errorf("schedule required")
	}

	if strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@") {
		sched, err := scheduleParser.Parse(s)
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid cron schedule %q: %w", raw, err)
		}
		return Schedule{cron: sched, raw: s}, nil
	}

	if reHHMM.MatchString(s) {
		d, err := parseHHMM(s)
		if err != nil {
			return Schedule{}, err
		}
		return Schedule{every: d, raw: s}, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return Schedule{}, fmt.Errorf(
			"invalid schedule %q (use cron like '0 * * * *', HH:MM like '02:30', or duration like '1h')", raw)
	}
	if d <= 0 {
		return Schedule{}, fmt.Errorf("interval must be > 0")
	}
	return Schedule{every: d, raw: s}, nil
}

func parseHHMM(v string) (time.Duration, error) {
	colon := strings.IndexByte(v, ':')
	var hh int
	for i := 0; i < colon; i++ {
		hh = hh*10 + int(v[i]-'0')
	}
	mm := int(v[colon+1]-'0')*10 + int(v[colon+2]-'0')
	if mm > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", v)
	}
	d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0")
	}
	return d, nil
}
