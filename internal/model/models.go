// Package model defines the data models for the marathon bot.
package model

import "time"

// User represents a Telegram user who interacted with the bot.
// Users are created on first /start and never deleted; the subscribed
// flag tracks the outcome of the last channel-membership check.
type User struct {
	TelegramID   int64     `db:"telegram_id"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	RegisteredAt time.Time `db:"registered_at"`
	Subscribed   bool      `db:"subscribed"`
}

// RaffleParticipant is the slice of a User that the raffle operates on.
// Only subscribed users with a public @username take part.
type RaffleParticipant struct {
	UserID    int64  `db:"user_id"`
	Username  string `db:"username"`
	FirstName string `db:"first_name"`
}

// DisplayName returns the participant's public handle for announcements.
func (p RaffleParticipant) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	if p.FirstName != "" {
		return p.FirstName
	}
	return "Неизвестный"
}

// RaffleWinner is one row of a completed raffle. Winner rows are
// append-only: every raffle writes a fresh batch sharing one RaffleDate.
type RaffleWinner struct {
	PrizePlace  int       `db:"prize_place"`
	PrizeAmount string    `db:"prize_amount"`
	UserID      int64     `db:"user_id"`
	Username    string    `db:"username"`
	FirstName   string    `db:"first_name"`
	RaffleDate  time.Time `db:"raffle_date"`
}

// DisplayName returns the winner's public handle for announcements.
func (w RaffleWinner) DisplayName() string {
	if w.Username != "" {
		return "@" + w.Username
	}
	if w.FirstName != "" {
		return w.FirstName
	}
	return "Неизвестный"
}

// PrizeAmounts lists the fixed prize tiers by place. Only as many tiers
// are used as there are winners.
var PrizeAmounts = []string{"10 000 ₽", "5 000 ₽", "3 000 ₽"}

// MaxWinners is the number of prize places in a single raffle.
const MaxWinners = 3
