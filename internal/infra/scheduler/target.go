package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"enrollment_notifier/internal/infra/config"

	"github.com/robfig/cron/v3"
)

// Target decides when the next cycle fires.
type Target interface {
	// Next returns the next fire time for a cycle that started at start and
	// finished at now. A result not after now means "fire immediately".
	Next(start, now time.Time) time.Time
}

// IntervalTarget fires a fixed duration after the previous cycle started.
type IntervalTarget struct {
	Every time.Duration
}

func (t IntervalTarget) Next(start, now time.Time) time.Time {
	next := start.Add(t.Every)
	if next.Before(now) {
		return now
	}
	return next
}

func (t IntervalTarget) String() string { return "every " + t.Every.String() }

// AnchorTarget fires at fixed wall-clock hours in a named zone.
type AnchorTarget struct {
	spec     string
	schedule cron.Schedule
}

// NewAnchorTarget builds a target firing at minute 0 of each hour in hours,
// evaluated in zone.
func NewAnchorTarget(hours []int, zone string) (*AnchorTarget, error) {
	if len(hours) == 0 {
		return nil, errors.New("at least one anchor hour is required")
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return nil, fmt.Errorf("invalid schedule time zone %q: %w", zone, err)
	}
	parts := make([]string, len(hours))
	for i, h := range hours {
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("anchor hour %d out of range", h)
		}
		parts[i] = strconv.Itoa(h)
	}
	spec := fmt.Sprintf("CRON_TZ=%s 0 %s * * *", zone, strings.Join(parts, ","))
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse anchor schedule %q: %w", spec, err)
	}
	return &AnchorTarget{spec: spec, schedule: schedule}, nil
}

// Next returns the first anchor strictly after now.
func (t *AnchorTarget) Next(_, now time.Time) time.Time {
	return t.schedule.Next(now)
}

func (t *AnchorTarget) String() string { return t.spec }

// NewTargetFromConfig selects the schedule policy at startup.
func NewTargetFromConfig(cfg config.ScheduleConfig) (Target, error) {
	switch cfg.Mode {
	case config.ScheduleInterval:
		if cfg.Interval <= 0 {
			return nil, fmt.Errorf("schedule interval must be positive, got %s", cfg.Interval)
		}
		return IntervalTarget{Every: cfg.Interval}, nil
	case config.ScheduleAnchors:
		return NewAnchorTarget(cfg.AnchorHours, cfg.TimeZone)
	default:
		return nil, fmt.Errorf("unknown schedule mode %q", cfg.Mode)
	}
}

// Upcoming lists the next n fire times after from, assuming each cycle finishes instantly.
func Upcoming(t Target, from time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	at := from
	for len(out) < n {
		next := t.Next(at, at)
		if !next.After(at) {
			break
		}
		out = append(out, next)
		at = next
	}
	return out
}
