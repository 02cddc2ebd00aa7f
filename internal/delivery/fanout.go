package delivery

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Deliverer is the single-message send primitive the fan-out runs on.
type Deliverer interface {
	Send(ctx context.Context, chatID int64, text string) bool
}

// Result aggregates the per-recipient outcomes of one fan-out.
type Result struct {
	Sent   int
	Failed int
}

// Total returns the number of recipients processed.
func (r Result) Total() int { return r.Sent + r.Failed }

// Fanout broadcasts one message to many recipients sequentially,
// pacing sends to stay under the platform rate ceiling. Recipient
// order is preserved; a failed recipient never aborts the rest.
type Fanout struct {
	sender  Deliverer
	limiter *rate.Limiter
}

// NewFanout creates a Fanout that spaces consecutive sends by pace.
func NewFanout(sender Deliverer, pace time.Duration) *Fanout {
	if pace <= 0 {
		pace = 50 * time.Millisecond
	}
	return &Fanout{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Every(pace), 1),
	}
}

// Broadcast sends text to every recipient in order and returns the
// aggregate counts. Delivery is best-effort: failures are counted and
// logged, nothing is rolled back or re-queued.
func (f *Fanout) Broadcast(ctx context.Context, recipients []int64, text string) Result {
	var res Result
	for _, chatID := range recipients {
		if err := f.limiter.Wait(ctx); err != nil {
			log.Error().Err(err).Msg("Broadcast interrupted")
			break
		}
		if f.sender.Send(ctx, chatID, text) {
			res.Sent++
		} else {
			res.Failed++
			log.Warn().Int64("chat_id", chatID).Msg("Broadcast delivery failed for recipient")
		}
	}

	log.Info().
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Int("recipients", len(recipients)).
		Msg("Broadcast finished")

	return res
}
