// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"marathon-bot/internal/config"
	"marathon-bot/internal/delivery"
	"marathon-bot/internal/handler"
	"marathon-bot/internal/raffle"
	"marathon-bot/internal/repository"
	"marathon-bot/internal/scheduler"
	"marathon-bot/internal/subscription"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot       *tele.Bot
	cfg       *config.Config
	scheduler *scheduler.Scheduler

	startHandler *handler.StartHandler
	adminHandler *handler.AdminHandler

	stopScheduler context.CancelFunc
}

// Dependencies holds everything the bot needs from the composition root.
type Dependencies struct {
	Config  *config.Config
	Users   *repository.UserRepository
	Winners *repository.WinnerRepository
	Rand    *rand.Rand
}

// New creates a new Bot instance with the given dependencies and wires
// up the delivery client, subscription checker, raffle engine and
// reminder scheduler around the telebot client.
func New(deps *Dependencies) (*Bot, error) {
	cfg := deps.Config
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	calendar, err := scheduler.FromConfig(cfg.Marathon)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign calendar: %w", err)
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	sender := delivery.NewSender(teleBot, cfg.Delivery.MaxRetries)
	fanout := delivery.NewFanout(sender, cfg.Delivery.PaceDelay)
	checker := subscription.NewChecker(teleBot, cfg.Channels)
	engine := raffle.New(deps.Users, deps.Winners, checker, fanout, deps.Rand)
	sched := scheduler.New(calendar, deps.Users, fanout, cfg.Delivery.TickInterval)

	b := &Bot{
		bot:          teleBot,
		cfg:          cfg,
		scheduler:    sched,
		startHandler: handler.NewStartHandler(deps.Users, checker),
		adminHandler: handler.NewAdminHandler(cfg, deps.Users, deps.Winners, fanout, engine),
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(RecoveryMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.startHandler.HandleStart)

	// Admin commands; authorization is enforced inside the handlers so
	// an unconfigured admin list disables them with a clear reply.
	b.bot.Handle("/stats", b.adminHandler.HandleStats)
	b.bot.Handle("/send", b.adminHandler.HandleSend)
	b.bot.Handle("/raffle", b.adminHandler.HandleRaffle)
	b.bot.Handle("/winners", b.adminHandler.HandleWinners)

	// Free text only matters inside an active /send flow
	b.bot.Handle(tele.OnText, b.adminHandler.HandleText)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes callbacks to the appropriate handlers.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot may add a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")

	switch data {
	case handler.CallbackParticipate:
		return b.startHandler.HandleParticipate(c)
	case handler.CallbackCheckSubscription:
		return b.startHandler.HandleCheckSubscription(c)
	case handler.CallbackConfirmSend:
		return b.adminHandler.HandleConfirmSend(c)
	case handler.CallbackCancelSend:
		return b.adminHandler.HandleCancelSend(c)
	default:
		log.Debug().Str("data", data).Msg("Unknown callback ignored")
		return nil
	}
}

// Start launches the reminder scheduler and begins polling. It blocks
// until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")

	ctx, cancel := context.WithCancel(context.Background())
	b.stopScheduler = cancel
	go b.scheduler.Run(ctx)

	b.bot.Start()
}

// Stop stops the scheduler and the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	if b.stopScheduler != nil {
		b.stopScheduler()
	}
	b.bot.Stop()
}
