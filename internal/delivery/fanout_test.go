package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeDeliverer records recipients and fails the configured ids.
type fakeDeliverer struct {
	failing map[int64]bool
	sent    []int64
}

func (f *fakeDeliverer) Send(ctx context.Context, chatID int64, text string) bool {
	f.sent = append(f.sent, chatID)
	return !f.failing[chatID]
}

func TestFanout_AllSucceed(t *testing.T) {
	d := &fakeDeliverer{}
	f := NewFanout(d, time.Millisecond)

	recipients := []int64{1, 2, 3, 4, 5}
	res := f.Broadcast(context.Background(), recipients, "hello")

	assert.Equal(t, len(recipients), res.Sent)
	assert.Zero(t, res.Failed)
	assert.Equal(t, len(recipients), res.Total())
}

func TestFanout_PreservesRecipientOrder(t *testing.T) {
	d := &fakeDeliverer{}
	f := NewFanout(d, time.Millisecond)

	recipients := []int64{42, 7, 99, 1}
	f.Broadcast(context.Background(), recipients, "hello")

	assert.Equal(t, recipients, d.sent)
}

func TestFanout_FailuresDoNotAbortRest(t *testing.T) {
	d := &fakeDeliverer{failing: map[int64]bool{2: true, 4: true}}
	f := NewFanout(d, time.Millisecond)

	res := f.Broadcast(context.Background(), []int64{1, 2, 3, 4, 5}, "hello")

	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, d.sent, "every recipient must still be attempted")
}

func TestFanout_EmptyRecipients(t *testing.T) {
	d := &fakeDeliverer{}
	f := NewFanout(d, time.Millisecond)

	res := f.Broadcast(context.Background(), nil, "hello")

	assert.Zero(t, res.Sent)
	assert.Zero(t, res.Failed)
	assert.Empty(t, d.sent)
}

func TestFanout_PacesBetweenSends(t *testing.T) {
	d := &fakeDeliverer{}
	pace := 10 * time.Millisecond
	f := NewFanout(d, pace)

	start := time.Now()
	f.Broadcast(context.Background(), []int64{1, 2, 3}, "hello")
	elapsed := time.Since(start)

	// Three sends spaced by the pacing interval need at least two gaps.
	assert.GreaterOrEqual(t, elapsed, 2*pace)
}
