// Package delivery wraps the Telegram transport with a retrying,
// rate-limit-aware send primitive and the broadcast fan-out built on it.
package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

// API is the slice of the telebot client the sender needs.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Sender delivers a single message to a single chat. Every failure mode
// resolves to a boolean: callers never see an error cross this boundary.
type Sender struct {
	api        API
	maxRetries int

	// sleep is swapped out in tests to observe retry delays.
	sleep func(time.Duration)
}

// NewSender creates a Sender with the given retry budget for transient
// network failures. maxRetries counts total attempts, not re-tries.
func NewSender(api API, maxRetries int) *Sender {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Sender{
		api:        api,
		maxRetries: maxRetries,
		sleep:      time.Sleep,
	}
}

// Send delivers text to the chat and reports success.
//
// Retry policy:
//   - flood limit: wait exactly the server-mandated duration and retry;
//     these retries do not count against the attempt budget
//   - network failure: retry up to maxRetries total attempts with linear
//     backoff of attempt*2 seconds between them
//   - API rejection (e.g. the user blocked the bot): fail immediately
//   - anything else: fail immediately
func (s *Sender) Send(ctx context.Context, chatID int64, text string) bool {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			log.Error().Int64("chat_id", chatID).Err(ctx.Err()).Msg("Send aborted")
			return false
		}

		_, err := s.api.Send(tele.ChatID(chatID), text)
		if err == nil {
			return true
		}

		var flood tele.FloodError
		if errors.As(err, &flood) {
			wait := time.Duration(flood.RetryAfter) * time.Second
			log.Warn().
				Int64("chat_id", chatID).
				Dur("retry_after", wait).
				Msg("Flood limit hit, waiting before retry")
			s.sleep(wait)
			attempt-- // uncounted
			continue
		}

		var apiErr *tele.Error
		if errors.As(err, &apiErr) {
			// e.g. bot blocked by the user or chat not found; retrying
			// cannot help
			log.Error().
				Int64("chat_id", chatID).
				Err(err).
				Msg("Message rejected by Telegram")
			return false
		}

		if isTransient(err) {
			if attempt < s.maxRetries {
				wait := time.Duration(attempt*2) * time.Second
				log.Warn().
					Int64("chat_id", chatID).
					Int("attempt", attempt).
					Int("max_retries", s.maxRetries).
					Dur("wait", wait).
					Err(err).
					Msg("Network error sending message, will retry")
				s.sleep(wait)
				continue
			}
			log.Error().
				Int64("chat_id", chatID).
				Int("attempts", s.maxRetries).
				Err(err).
				Msg("Failed to send message after all retries")
			return false
		}

		log.Error().
			Int64("chat_id", chatID).
			Err(err).
			Msg("Unexpected error sending message")
		return false
	}
	return false
}

// isTransient reports whether the error is a transport-level failure
// worth retrying. Telebot surfaces Telegram API rejections as typed
// errors; whatever remains is the HTTP client failing to reach the API.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
