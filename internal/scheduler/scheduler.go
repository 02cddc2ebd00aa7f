package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"marathon-bot/internal/delivery"
)

// UserLister provides the current broadcast recipient list.
type UserLister interface {
	ListSubscribedIDs(ctx context.Context) ([]int64, error)
}

// Broadcaster fans a rendered message out to a recipient list.
type Broadcaster interface {
	Broadcast(ctx context.Context, recipients []int64, text string) delivery.Result
}

// Scheduler wakes once per tick, matches the current minute against the
// campaign calendar and triggers fan-outs for every matching reminder.
//
// Matching is exact-minute and one-shot: a 60s tick observes each
// minute at most once. If a tick overruns its interval (a slow fan-out
// spanning more than a minute) the skipped minute's reminders are lost;
// there is deliberately no catch-up.
type Scheduler struct {
	calendar *Calendar
	users    UserLister
	fanout   Broadcaster
	tick     time.Duration

	// now is swapped out in tests.
	now func() time.Time
}

// New creates a Scheduler over the given calendar.
func New(calendar *Calendar, users UserLister, fanout Broadcaster, tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	return &Scheduler{
		calendar: calendar,
		users:    users,
		fanout:   fanout,
		tick:     tick,
		now:      time.Now,
	}
}

// Run loops until the context is cancelled. A failed tick is logged and
// never terminates the loop; the next tick starts from scratch.
func (s *Scheduler) Run(ctx context.Context) {
	log.Info().
		Int("events", len(s.calendar.Events)).
		Dur("tick", s.tick).
		Msg("Reminder scheduler started")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		if err := s.CheckReminders(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduler tick failed")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Reminder scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// CheckReminders performs a single tick: it truncates the current time
// to its minute key and fans out every calendar reminder that falls on
// that exact minute.
func (s *Scheduler) CheckReminders(ctx context.Context) error {
	key := KeyOf(s.now())

	users, err := s.users.ListSubscribedIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load recipients: %w", err)
	}
	if len(users) == 0 {
		log.Debug().Msg("No registered users, skipping reminder check")
		return nil
	}

	for _, ev := range s.calendar.Events {
		if key.Matches(ev.DayBefore) {
			log.Info().Str("day", ev.Day).Msg("Sending day-before reminder")
			s.fanout.Broadcast(ctx, users, DayBeforeMessage(ev))
		}
		if key.Matches(ev.HourBefore) {
			log.Info().Str("day", ev.Day).Msg("Sending hour-before reminder")
			s.fanout.Broadcast(ctx, users, HourBeforeMessage(ev))
		}
		if key.Matches(ev.FiveMinBefore) {
			log.Info().Str("day", ev.Day).Msg("Sending five-minute reminder")
			s.fanout.Broadcast(ctx, users, FiveMinBeforeMessage(ev))
		}
		if key.Matches(ev.After) {
			log.Info().Str("day", ev.Day).Msg("Sending after-broadcast message")
			s.fanout.Broadcast(ctx, users, AfterMessage(ev))
		}
	}

	if key.Matches(s.calendar.EndAt) {
		log.Info().Msg("Sending marathon end message")
		s.fanout.Broadcast(ctx, users, MarathonEndMessage)
	}

	return nil
}
