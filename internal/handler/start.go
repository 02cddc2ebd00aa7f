// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"marathon-bot/internal/repository"
	"marathon-bot/internal/subscription"
)

// Callback identifiers for the onboarding flow.
const (
	CallbackParticipate       = "participate"
	CallbackCheckSubscription = "check_subscription"
)

// StartHandler runs the onboarding flow: register the user, verify the
// channel subscriptions and confirm participation.
type StartHandler struct {
	users   *repository.UserRepository
	checker *subscription.Checker
}

// NewStartHandler creates a new StartHandler.
func NewStartHandler(users *repository.UserRepository, checker *subscription.Checker) *StartHandler {
	return &StartHandler{
		users:   users,
		checker: checker,
	}
}

// HandleStart handles the /start command. The user record is created
// (or refreshed) on every /start; the subscribed flag is only set after
// a passed subscription check.
func (h *StartHandler) HandleStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ctx := context.Background()
	if _, err := h.users.Upsert(ctx, sender.ID, sender.Username, sender.FirstName); err != nil {
		log.Error().
			Int64("user_id", sender.ID).
			Err(err).
			Msg("Failed to register user on /start")
		return c.Send("Произошла ошибка. Попробуйте позже.")
	}

	log.Info().
		Int64("user_id", sender.ID).
		Str("username", sender.Username).
		Msg("User started the bot")

	markup := &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{
			{{Text: "✅ Участвовать", Data: CallbackParticipate}},
		},
	}
	return c.Send(msgWelcome, markup)
}

// HandleParticipate handles the "participate" button press.
func (h *StartHandler) HandleParticipate(c tele.Context) error {
	return h.verifyAndRegister(c, msgSubscribePrompt)
}

// HandleCheckSubscription handles the re-check button shown after a
// failed subscription check.
func (h *StartHandler) HandleCheckSubscription(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if !h.checker.IsSubscribed(sender.ID) {
		return c.Respond(&tele.CallbackResponse{
			Text:      msgNotSubscribed,
			ShowAlert: true,
		})
	}

	return h.markRegistered(c, sender.ID)
}

// verifyAndRegister runs the subscription check and either completes
// registration or prompts the user to subscribe first.
func (h *StartHandler) verifyAndRegister(c tele.Context, retryText string) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if h.checker.IsSubscribed(sender.ID) {
		return h.markRegistered(c, sender.ID)
	}

	markup := &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{
			{{Text: "✅ Я подписался(ась)", Data: CallbackCheckSubscription}},
		},
	}
	if err := c.Send(retryText, markup); err != nil {
		log.Error().Int64("user_id", sender.ID).Err(err).Msg("Failed to send subscribe prompt")
	}
	return c.Respond(&tele.CallbackResponse{Text: "Пожалуйста, подпишись на все каналы"})
}

// markRegistered persists the subscribed flag and confirms registration.
func (h *StartHandler) markRegistered(c tele.Context, userID int64) error {
	ctx := context.Background()
	if err := h.users.SetSubscribed(ctx, userID, true); err != nil {
		log.Error().
			Int64("user_id", userID).
			Err(err).
			Msg("Failed to mark user subscribed")
		return c.Respond(&tele.CallbackResponse{
			Text:      "Произошла ошибка. Попробуйте позже.",
			ShowAlert: true,
		})
	}

	log.Info().Int64("user_id", userID).Msg("User registered for the marathon")

	if err := c.Send(msgRegistration); err != nil {
		log.Error().Int64("user_id", userID).Err(err).Msg("Failed to send registration confirmation")
	}
	return c.Respond(&tele.CallbackResponse{Text: "Регистрация успешна! 🎉"})
}
