// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marathon-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository handles user data persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert creates a user on first interaction or refreshes the stored
// username and first name when they changed on Telegram's side.
// The subscribed flag of an existing user is left untouched.
func (r *UserRepository) Upsert(ctx context.Context, telegramID int64, username, firstName string) (*model.User, error) {
	const query = `
		INSERT INTO users (telegram_id, username, first_name, registered_at, subscribed)
		VALUES ($1, $2, $3, NOW(), FALSE)
		ON CONFLICT (telegram_id)
		DO UPDATE SET username = EXCLUDED.username, first_name = EXCLUDED.first_name
		RETURNING telegram_id, username, first_name, registered_at, subscribed
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, telegramID, username, firstName).Scan(
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.RegisteredAt,
		&user.Subscribed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &user, nil
}

// GetByID retrieves a user by their Telegram ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, telegramID int64) (*model.User, error) {
	const query = `
		SELECT telegram_id, username, first_name, registered_at, subscribed
		FROM users
		WHERE telegram_id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.RegisteredAt,
		&user.Subscribed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// SetSubscribed updates a user's subscription flag.
func (r *UserRepository) SetSubscribed(ctx context.Context, telegramID int64, subscribed bool) error {
	const query = `
		UPDATE users
		SET subscribed = $2
		WHERE telegram_id = $1
	`

	result, err := r.pool.Exec(ctx, query, telegramID, subscribed)
	if err != nil {
		return fmt.Errorf("failed to set subscription flag: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// IsSubscribed reports whether the user is registered and marked subscribed.
// Unknown users count as not subscribed.
func (r *UserRepository) IsSubscribed(ctx context.Context, telegramID int64) (bool, error) {
	const query = `SELECT subscribed FROM users WHERE telegram_id = $1`

	var subscribed bool
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(&subscribed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check subscription flag: %w", err)
	}

	return subscribed, nil
}

// ListSubscribedIDs returns the IDs of all registered (subscribed) users.
// This is the recipient list for every scheduled or admin broadcast.
func (r *UserRepository) ListSubscribedIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT telegram_id FROM users WHERE subscribed`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribed users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user ids: %w", err)
	}

	return ids, nil
}

// ListRaffleCandidates returns subscribed users with a public username.
// Users without a username cannot be announced and never take part.
func (r *UserRepository) ListRaffleCandidates(ctx context.Context) ([]model.RaffleParticipant, error) {
	const query = `
		SELECT telegram_id, username, first_name
		FROM users
		WHERE subscribed
		AND username <> ''
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list raffle candidates: %w", err)
	}
	defer rows.Close()

	var participants []model.RaffleParticipant
	for rows.Next() {
		var p model.RaffleParticipant
		if err := rows.Scan(&p.UserID, &p.Username, &p.FirstName); err != nil {
			return nil, fmt.Errorf("failed to scan raffle candidate: %w", err)
		}
		participants = append(participants, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raffle candidates: %w", err)
	}

	return participants, nil
}

// CountUsers returns the total and subscribed user counts.
func (r *UserRepository) CountUsers(ctx context.Context) (total, subscribed int64, err error) {
	const query = `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE subscribed)
		FROM users
	`

	if err := r.pool.QueryRow(ctx, query).Scan(&total, &subscribed); err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}

	return total, subscribed, nil
}
