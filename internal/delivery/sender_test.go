package delivery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

// fakeAPI replays a scripted sequence of send outcomes.
type fakeAPI struct {
	errs  []error
	calls int
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	var err error
	if f.calls < len(f.errs) {
		err = f.errs[f.calls]
	}
	f.calls++
	if err != nil {
		return nil, err
	}
	return &tele.Message{}, nil
}

// newTestSender returns a sender whose sleeps are recorded, not slept.
func newTestSender(api API, maxRetries int) (*Sender, *[]time.Duration) {
	s := NewSender(api, maxRetries)
	var sleeps []time.Duration
	s.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return s, &sleeps
}

func floodErr(retryAfter int) error {
	return tele.FloodError{
		RetryAfter: retryAfter,
	}
}

var errNetwork = errors.New("dial tcp: i/o timeout")

func TestSender_SucceedsFirstAttempt(t *testing.T) {
	api := &fakeAPI{}
	s, sleeps := newTestSender(api, 3)

	ok := s.Send(context.Background(), 100, "hi")

	assert.True(t, ok)
	assert.Equal(t, 1, api.calls)
	assert.Empty(t, *sleeps)
}

func TestSender_RejectedNeverRetried(t *testing.T) {
	api := &fakeAPI{errs: []error{tele.ErrBlockedByUser}}
	s, sleeps := newTestSender(api, 3)

	ok := s.Send(context.Background(), 100, "hi")

	assert.False(t, ok)
	assert.Equal(t, 1, api.calls, "a recipient rejection must not be retried")
	assert.Empty(t, *sleeps)
}

func TestSender_NetworkErrorLinearBackoff(t *testing.T) {
	const maxRetries = 3
	api := &fakeAPI{errs: []error{errNetwork, errNetwork, errNetwork}}
	s, sleeps := newTestSender(api, maxRetries)

	ok := s.Send(context.Background(), 100, "hi")

	assert.False(t, ok)
	assert.Equal(t, maxRetries, api.calls, "must exhaust exactly maxRetries attempts")
	// Linear backoff: attempt*2 seconds between attempts, so 2s then 4s
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *sleeps)
}

func TestSender_NetworkErrorThenSuccess(t *testing.T) {
	api := &fakeAPI{errs: []error{errNetwork, nil}}
	s, sleeps := newTestSender(api, 3)

	ok := s.Send(context.Background(), 100, "hi")

	assert.True(t, ok)
	assert.Equal(t, 2, api.calls)
	assert.Equal(t, []time.Duration{2 * time.Second}, *sleeps)
}

func TestSender_FloodWaitsServerDuration(t *testing.T) {
	api := &fakeAPI{errs: []error{floodErr(7), nil}}
	s, sleeps := newTestSender(api, 3)

	ok := s.Send(context.Background(), 100, "hi")

	assert.True(t, ok)
	assert.Equal(t, 2, api.calls)
	require.Equal(t, []time.Duration{7 * time.Second}, *sleeps)
}

func TestSender_FloodRetriesUncounted(t *testing.T) {
	// Flood waits interleaved with network failures: the flood retries
	// must not consume the attempt budget, so all three network
	// attempts still happen.
	api := &fakeAPI{errs: []error{
		floodErr(5), // uncounted
		errNetwork,  // attempt 1
		floodErr(3), // uncounted
		errNetwork,  // attempt 2
		errNetwork,  // attempt 3
	}}
	s, sleeps := newTestSender(api, 3)

	ok := s.Send(context.Background(), 100, "hi")

	assert.False(t, ok)
	assert.Equal(t, 5, api.calls)
	require.Equal(t, []time.Duration{
		5 * time.Second,
		2 * time.Second,
		3 * time.Second,
		4 * time.Second,
	}, *sleeps)
}

func TestSender_UnexpectedErrorFailsImmediately(t *testing.T) {
	api := &fakeAPI{errs: []error{fmt.Errorf("post: %w", context.Canceled)}}
	s, sleeps := newTestSender(api, 3)

	ok := s.Send(context.Background(), 100, "hi")

	assert.False(t, ok)
	assert.Equal(t, 1, api.calls)
	assert.Empty(t, *sleeps)
}

func TestSender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api := &fakeAPI{}
	s, _ := newTestSender(api, 3)

	ok := s.Send(ctx, 100, "hi")

	assert.False(t, ok)
	assert.Zero(t, api.calls)
}
