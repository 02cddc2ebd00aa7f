// Package raffle conducts the prize drawing among eligible subscribers.
package raffle

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"marathon-bot/internal/delivery"
	"marathon-bot/internal/model"
	"marathon-bot/internal/pkg/lock"
)

// ErrAlreadyRunning is returned when a raffle is triggered while a
// previous one is still in flight.
var ErrAlreadyRunning = errors.New("raffle already in progress")

// UserStore is the user directory slice the raffle reads and writes.
type UserStore interface {
	ListRaffleCandidates(ctx context.Context) ([]model.RaffleParticipant, error)
	SetSubscribed(ctx context.Context, telegramID int64, subscribed bool) error
	ListSubscribedIDs(ctx context.Context) ([]int64, error)
}

// WinnerStore persists completed drawings.
type WinnerStore interface {
	AppendWinners(ctx context.Context, winners []model.RaffleWinner, raffleDate time.Time) error
}

// SubscriptionChecker re-verifies live channel membership.
type SubscriptionChecker interface {
	IsSubscribed(userID int64) bool
}

// Broadcaster fans the results announcement out to all registered users.
type Broadcaster interface {
	Broadcast(ctx context.Context, recipients []int64, text string) delivery.Result
}

// Engine runs the raffle: filter candidates, re-check subscriptions,
// draw winners, persist the batch and announce the results.
type Engine struct {
	users   UserStore
	winners WinnerStore
	checker SubscriptionChecker
	fanout  Broadcaster
	rnd     *rand.Rand
	guard   lock.RunGuard

	// now is swapped out in tests.
	now func() time.Time
}

// New creates a raffle Engine. rnd is the randomness source for the
// drawing; pass a seeded source in tests for reproducible draws.
func New(users UserStore, winners WinnerStore, checker SubscriptionChecker, fanout Broadcaster, rnd *rand.Rand) *Engine {
	return &Engine{
		users:   users,
		winners: winners,
		checker: checker,
		fanout:  fanout,
		rnd:     rnd,
		now:     time.Now,
	}
}

// Conduct performs one complete raffle. Every invocation is an
// independent drawing: nothing prevents a later repeat run, only two
// overlapping runs are rejected with ErrAlreadyRunning.
//
// Returns the persisted winners, or nil without error when there were
// no eligible participants (the raffle aborts silently in that case,
// no announcement is sent).
func (e *Engine) Conduct(ctx context.Context) ([]model.RaffleWinner, error) {
	if !e.guard.TryAcquire() {
		return nil, ErrAlreadyRunning
	}
	defer e.guard.Release()

	log.Info().Msg("Raffle started")

	candidates, err := e.users.ListRaffleCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load raffle candidates: %w", err)
	}
	if len(candidates) == 0 {
		log.Warn().Msg("No raffle candidates, aborting")
		return nil, nil
	}

	log.Info().Int("candidates", len(candidates)).Msg("Re-checking candidate subscriptions")

	eligible := e.filterEligible(ctx, candidates)
	if len(eligible) == 0 {
		log.Warn().Msg("No eligible raffle participants after subscription re-check")
		return nil, nil
	}

	winners := e.draw(eligible)

	raffleDate := e.now()
	for i := range winners {
		winners[i].RaffleDate = raffleDate
		log.Info().
			Int("place", winners[i].PrizePlace).
			Str("prize", winners[i].PrizeAmount).
			Int64("user_id", winners[i].UserID).
			Str("winner", winners[i].DisplayName()).
			Msg("Raffle winner drawn")
	}

	if err := e.winners.AppendWinners(ctx, winners, raffleDate); err != nil {
		return nil, fmt.Errorf("failed to save raffle winners: %w", err)
	}

	e.announce(ctx, winners)

	log.Info().Int("winners", len(winners)).Msg("Raffle finished")
	return winners, nil
}

// filterEligible re-verifies each candidate's live subscription and
// persists the refreshed flag regardless of the raffle outcome. One
// candidate failing never stops the others from being checked.
func (e *Engine) filterEligible(ctx context.Context, candidates []model.RaffleParticipant) []model.RaffleParticipant {
	var eligible []model.RaffleParticipant
	for _, p := range candidates {
		// guaranteed by the candidate query, re-checked anyway
		if p.Username == "" {
			log.Debug().Int64("user_id", p.UserID).Msg("Candidate excluded: no username")
			continue
		}

		subscribed := e.checker.IsSubscribed(p.UserID)

		if err := e.users.SetSubscribed(ctx, p.UserID, subscribed); err != nil {
			log.Error().
				Int64("user_id", p.UserID).
				Err(err).
				Msg("Failed to persist refreshed subscription flag")
		}

		if subscribed {
			eligible = append(eligible, p)
		} else {
			log.Debug().
				Int64("user_id", p.UserID).
				Str("username", p.Username).
				Msg("Candidate excluded: not subscribed to all channels")
		}
	}
	return eligible
}

// draw selects up to MaxWinners participants and assigns prize tiers by
// rank. With more than MaxWinners eligible, it draws uniformly without
// replacement; otherwise everyone wins and only the rank order is
// randomized.
func (e *Engine) draw(eligible []model.RaffleParticipant) []model.RaffleWinner {
	count := len(eligible)
	if count > model.MaxWinners {
		count = model.MaxWinners
	}

	order := e.rnd.Perm(len(eligible))

	winners := make([]model.RaffleWinner, 0, count)
	for i := 0; i < count; i++ {
		p := eligible[order[i]]
		winners = append(winners, model.RaffleWinner{
			PrizePlace:  i + 1,
			PrizeAmount: model.PrizeAmounts[i],
			UserID:      p.UserID,
			Username:    p.Username,
			FirstName:   p.FirstName,
		})
	}
	return winners
}

// announce fans the results message out to every registered user, not
// just the participants.
func (e *Engine) announce(ctx context.Context, winners []model.RaffleWinner) {
	users, err := e.users.ListSubscribedIDs(ctx)
	if err != nil {
		// winners are already persisted; the announcement is lost
		log.Error().Err(err).Msg("Failed to load recipients for raffle announcement")
		return
	}

	log.Info().Int("recipients", len(users)).Msg("Sending raffle results")
	e.fanout.Broadcast(ctx, users, ResultsMessage(winners))
}
