// Package scheduler drives the campaign calendar: a minute-granularity
// tick loop that matches wall-clock time against the configured
// broadcast reminders and fans the rendered messages out to all
// registered users.
package scheduler

import (
	"fmt"
	"time"

	"marathon-bot/internal/config"
)

// timeLayout is the calendar timestamp layout used in configuration.
const timeLayout = "2006-01-02 15:04"

// TimeKey identifies one wall-clock minute. Seconds and below are
// discarded so reminder matches are exact-minute, one-shot events.
type TimeKey struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
}

// KeyOf truncates t to its minute key.
func KeyOf(t time.Time) TimeKey {
	return TimeKey{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
	}
}

// Matches reports whether the key falls on the given instant's minute.
// A zero instant never matches; optional reminders stay disabled that way.
func (k TimeKey) Matches(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return k == KeyOf(t)
}

// Event is one scheduled broadcast with its reminder instants.
// Events are loaded from configuration once and immutable at runtime.
type Event struct {
	Day           string
	StartsAt      time.Time
	DayBefore     time.Time
	HourBefore    time.Time
	FiveMinBefore time.Time // zero when disabled
	After         time.Time
}

// Calendar is the ordered campaign plan plus the terminal end instant.
type Calendar struct {
	Events []Event
	EndAt  time.Time
}

// FromConfig parses the configured marathon calendar. Timestamps use
// the "2006-01-02 15:04" layout in local time. The five-minute reminder
// is optional per event; everything else is required.
func FromConfig(cfg config.MarathonConfig) (*Calendar, error) {
	cal := &Calendar{}

	for i, b := range cfg.Broadcasts {
		ev := Event{Day: b.Day}

		var err error
		if ev.StartsAt, err = parseAt(b.StartsAt); err != nil {
			return nil, fmt.Errorf("broadcast %d (%s): bad starts_at: %w", i, b.Day, err)
		}
		if ev.DayBefore, err = parseAt(b.DayBefore); err != nil {
			return nil, fmt.Errorf("broadcast %d (%s): bad day_before: %w", i, b.Day, err)
		}
		if ev.HourBefore, err = parseAt(b.HourBefore); err != nil {
			return nil, fmt.Errorf("broadcast %d (%s): bad hour_before: %w", i, b.Day, err)
		}
		if ev.After, err = parseAt(b.After); err != nil {
			return nil, fmt.Errorf("broadcast %d (%s): bad after: %w", i, b.Day, err)
		}
		if b.FiveMinBefore != "" {
			if ev.FiveMinBefore, err = parseAt(b.FiveMinBefore); err != nil {
				return nil, fmt.Errorf("broadcast %d (%s): bad five_min_before: %w", i, b.Day, err)
			}
		}

		cal.Events = append(cal.Events, ev)
	}

	if cfg.EndAt != "" {
		end, err := parseAt(cfg.EndAt)
		if err != nil {
			return nil, fmt.Errorf("bad marathon end_at: %w", err)
		}
		cal.EndAt = end
	}

	return cal, nil
}

func parseAt(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.Local)
}
