package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marathon-bot/internal/model"
)

// WinnerRepository handles persistence of raffle results.
// The raffle_winners table is append-only: rows are never updated or
// deleted, and every raffle writes its batch with one shared date.
type WinnerRepository struct {
	pool *pgxpool.Pool
}

// NewWinnerRepository creates a new WinnerRepository instance.
func NewWinnerRepository(pool *pgxpool.Pool) *WinnerRepository {
	return &WinnerRepository{pool: pool}
}

// AppendWinners saves a completed raffle as a single transaction.
// All rows receive the same raffle date so the batch can be read back
// as one drawing.
func (r *WinnerRepository) AppendWinners(ctx context.Context, winners []model.RaffleWinner, raffleDate time.Time) error {
	if len(winners) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin winners transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO raffle_winners (raffle_date, prize_place, prize_amount, user_id, username, first_name)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, w := range winners {
		if _, err := tx.Exec(ctx, query,
			raffleDate, w.PrizePlace, w.PrizeAmount, w.UserID, w.Username, w.FirstName,
		); err != nil {
			return fmt.Errorf("failed to insert raffle winner: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit winners transaction: %w", err)
	}

	return nil
}

// ListRecentWinners returns the most recent raffle winners, newest
// drawing first and within a drawing ordered by prize place.
func (r *WinnerRepository) ListRecentWinners(ctx context.Context, limit int) ([]model.RaffleWinner, error) {
	const query = `
		SELECT prize_place, prize_amount, user_id, username, first_name, raffle_date
		FROM raffle_winners
		ORDER BY raffle_date DESC, prize_place ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list raffle winners: %w", err)
	}
	defer rows.Close()

	var winners []model.RaffleWinner
	for rows.Next() {
		var w model.RaffleWinner
		err := rows.Scan(
			&w.PrizePlace,
			&w.PrizeAmount,
			&w.UserID,
			&w.Username,
			&w.FirstName,
			&w.RaffleDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raffle winner: %w", err)
		}
		winners = append(winners, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raffle winners: %w", err)
	}

	return winners, nil
}
