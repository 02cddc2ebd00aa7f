package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"marathon-bot/internal/config"
	"marathon-bot/internal/delivery"
	"marathon-bot/internal/model"
	"marathon-bot/internal/raffle"
	"marathon-bot/internal/repository"
)

// Callback identifiers for the admin broadcast flow.
const (
	CallbackConfirmSend = "confirm_send"
	CallbackCancelSend  = "cancel_send"
)

const cancelButtonText = "❌ Отменить"

// Broadcaster fans an admin message out to a recipient list.
type Broadcaster interface {
	Broadcast(ctx context.Context, recipients []int64, text string) delivery.Result
}

// RaffleConductor runs the prize drawing on demand.
type RaffleConductor interface {
	Conduct(ctx context.Context) ([]model.RaffleWinner, error)
}

// sendState tracks where an admin is in the /send flow.
type sendState int

const (
	stateAwaitingMessage sendState = iota + 1
	stateConfirmSend
)

// sendSession is the per-chat state of one in-progress /send flow.
// It lives only as long as the flow is active.
type sendSession struct {
	state sendState
	text  string
}

// AdminHandler handles administrator commands: stats, ad-hoc
// broadcasts, the raffle trigger and the winners listing.
type AdminHandler struct {
	cfg     *config.Config
	users   *repository.UserRepository
	winners *repository.WinnerRepository
	fanout  Broadcaster
	raffle  RaffleConductor

	mu       sync.Mutex
	sessions map[int64]*sendSession
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	cfg *config.Config,
	users *repository.UserRepository,
	winners *repository.WinnerRepository,
	fanout Broadcaster,
	conductor RaffleConductor,
) *AdminHandler {
	return &AdminHandler{
		cfg:      cfg,
		users:    users,
		winners:  winners,
		fanout:   fanout,
		raffle:   conductor,
		sessions: make(map[int64]*sendSession),
	}
}

// isAuthorized replies and reports false when the sender may not run
// admin commands. With no admins configured the commands are disabled
// entirely rather than open to everyone.
func (h *AdminHandler) isAuthorized(c tele.Context) bool {
	sender := c.Sender()
	if sender == nil {
		return false
	}
	if !h.cfg.HasAdmins() {
		_ = c.Send(msgAdminUnavailable)
		return false
	}
	if !h.cfg.IsAdmin(sender.ID) {
		_ = c.Send(msgNoPermission)
		return false
	}
	return true
}

// HandleStats handles the /stats command.
func (h *AdminHandler) HandleStats(c tele.Context) error {
	if !h.isAuthorized(c) {
		return nil
	}

	total, subscribed, err := h.users.CountUsers(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to count users for /stats")
		return c.Send("❌ Не удалось получить статистику")
	}

	return c.Send(fmt.Sprintf(
		"📊 Статистика\n\nВсего пользователей: %d\nЗарегистрировано на марафон: %d",
		total, subscribed,
	))
}

// HandleSend starts the admin broadcast flow.
func (h *AdminHandler) HandleSend(c tele.Context) error {
	if !h.isAuthorized(c) {
		return nil
	}

	h.mu.Lock()
	h.sessions[c.Chat().ID] = &sendSession{state: stateAwaitingMessage}
	h.mu.Unlock()

	markup := &tele.ReplyMarkup{
		ReplyKeyboard:   [][]tele.ReplyButton{{{Text: cancelButtonText}}},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
	return c.Send(
		"📤 Отправьте сообщение для рассылки всем зарегистрированным пользователям.\n\n"+
			"Для отмены нажмите кнопку ниже.",
		markup,
	)
}

// HandleText consumes the message an admin typed after /send. Texts
// outside an active session belong to other handlers and are ignored.
func (h *AdminHandler) HandleText(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil || !h.cfg.IsAdmin(sender.ID) {
		return nil
	}

	h.mu.Lock()
	session, ok := h.sessions[chat.ID]
	h.mu.Unlock()
	if !ok || session.state != stateAwaitingMessage {
		return nil
	}

	if c.Text() == cancelButtonText {
		h.clearSession(chat.ID)
		return c.Send("❌ Отправка отменена", &tele.ReplyMarkup{RemoveKeyboard: true})
	}

	h.mu.Lock()
	session.text = c.Text()
	session.state = stateConfirmSend
	h.mu.Unlock()

	markup := &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{
			{{Text: "✅ Отправить", Data: CallbackConfirmSend}},
			{{Text: cancelButtonText, Data: CallbackCancelSend}},
		},
	}
	preview := "📋 Превью сообщения:\n\n" + c.Text() +
		"\n\nОтправить это сообщение всем пользователям?"
	return c.Send(preview, markup)
}

// HandleConfirmSend handles the broadcast confirmation button.
func (h *AdminHandler) HandleConfirmSend(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil || !h.cfg.IsAdmin(sender.ID) {
		return nil
	}

	h.mu.Lock()
	session, ok := h.sessions[chat.ID]
	h.mu.Unlock()
	if !ok || session.state != stateConfirmSend || session.text == "" {
		return c.Respond(&tele.CallbackResponse{Text: "Нет сообщения для отправки"})
	}
	h.clearSession(chat.ID)

	if err := c.Edit("⏳ Отправка сообщений..."); err != nil {
		log.Debug().Err(err).Msg("Failed to edit broadcast preview")
	}
	_ = c.Respond(&tele.CallbackResponse{})

	ctx := context.Background()
	users, err := h.users.ListSubscribedIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load recipients for admin broadcast")
		return c.Send("❌ Не удалось загрузить список пользователей")
	}
	if len(users) == 0 {
		return c.Send("❌ Нет зарегистрированных пользователей для рассылки")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int("recipients", len(users)).
		Msg("Admin broadcast started")

	res := h.fanout.Broadcast(ctx, users, session.text)

	return c.Send(fmt.Sprintf(
		"✅ Рассылка завершена!\n\n"+
			"📊 Успешно отправлено: %d\n"+
			"❌ Ошибок: %d\n"+
			"📈 Всего пользователей: %d",
		res.Sent, res.Failed, len(users),
	), &tele.ReplyMarkup{RemoveKeyboard: true})
}

// HandleCancelSend handles the broadcast cancel button.
func (h *AdminHandler) HandleCancelSend(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	h.clearSession(chat.ID)

	if err := c.Edit("❌ Отправка отменена"); err != nil {
		log.Debug().Err(err).Msg("Failed to edit broadcast preview")
	}
	return c.Respond(&tele.CallbackResponse{Text: "Отправка отменена"})
}

// HandleRaffle handles the /raffle command: runs the drawing and
// reports the outcome to the administrator.
func (h *AdminHandler) HandleRaffle(c tele.Context) error {
	if !h.isAuthorized(c) {
		return nil
	}

	log.Info().Int64("admin_id", c.Sender().ID).Msg("Raffle triggered by admin")

	winners, err := h.raffle.Conduct(context.Background())
	if err != nil {
		if errors.Is(err, raffle.ErrAlreadyRunning) {
			return c.Send("⏳ Розыгрыш уже идет, подождите его завершения")
		}
		log.Error().Err(err).Msg("Raffle failed")
		return c.Send("❌ Ошибка при проведении розыгрыша")
	}
	if len(winners) == 0 {
		return c.Send("⚠️ Розыгрыш не проведен: нет участников, соответствующих условиям")
	}

	return c.Send(fmt.Sprintf("✅ Розыгрыш проведен, победителей: %d", len(winners)))
}

// HandleWinners handles the /winners command.
func (h *AdminHandler) HandleWinners(c tele.Context) error {
	if !h.isAuthorized(c) {
		return nil
	}

	winners, err := h.winners.ListRecentWinners(context.Background(), model.MaxWinners)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list raffle winners")
		return c.Send("❌ Не удалось получить список победителей")
	}
	if len(winners) == 0 {
		return c.Send("Розыгрыш еще не проводился")
	}

	var b strings.Builder
	b.WriteString("🏆 Победители последнего розыгрыша:\n\n")
	for _, w := range winners {
		fmt.Fprintf(&b, "%d место — %s (%s)\n", w.PrizePlace, w.DisplayName(), w.PrizeAmount)
	}
	fmt.Fprintf(&b, "\nДата розыгрыша: %s", winners[0].RaffleDate.Format("02.01.2006 15:04"))

	return c.Send(b.String())
}

func (h *AdminHandler) clearSession(chatID int64) {
	h.mu.Lock()
	delete(h.sessions, chatID)
	h.mu.Unlock()
}
