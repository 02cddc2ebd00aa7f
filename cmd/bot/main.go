// Package main is the entry point for the marathon bot.
package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marathon-bot/internal/bot"
	"marathon-bot/internal/config"
	"marathon-bot/internal/pkg/db"
	"marathon-bot/internal/repository"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Int("broadcasts", len(cfg.Marathon.Broadcasts)).
		Int("admins", len(cfg.Admin.IDs)).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	winnerRepo := repository.NewWinnerRepository(dbPool.Pool)

	total, subscribed, err := userRepo.CountUsers(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query user counts")
	}
	log.Info().
		Int64("total_users", total).
		Int64("subscribed_users", subscribed).
		Msg("Database ready")

	// Initialize bot
	marathonBot, err := bot.New(&bot.Dependencies{
		Config:  cfg,
		Users:   userRepo,
		Winners: winnerRepo,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		marathonBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	marathonBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			telegram_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL DEFAULT '',
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			subscribed BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE INDEX IF NOT EXISTS idx_users_subscribed ON users(subscribed) WHERE subscribed;
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create raffle winners table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS raffle_winners (
			id BIGSERIAL PRIMARY KEY,
			raffle_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			prize_place INT NOT NULL,
			prize_amount TEXT NOT NULL,
			user_id BIGINT NOT NULL REFERENCES users(telegram_id),
			username VARCHAR(255) NOT NULL DEFAULT '',
			first_name VARCHAR(255) NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_raffle_winners_date ON raffle_winners(raffle_date DESC, prize_place ASC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: raffle_winners table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
