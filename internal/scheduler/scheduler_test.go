package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marathon-bot/internal/delivery"
)

type fakeUserLister struct {
	ids []int64
	err error
}

func (f *fakeUserLister) ListSubscribedIDs(ctx context.Context) ([]int64, error) {
	return f.ids, f.err
}

type broadcastCall struct {
	recipients []int64
	text       string
}

type fakeBroadcaster struct {
	calls []broadcastCall
}

func (f *fakeBroadcaster) Broadcast(ctx context.Context, recipients []int64, text string) delivery.Result {
	f.calls = append(f.calls, broadcastCall{recipients: recipients, text: text})
	return delivery.Result{Sent: len(recipients)}
}

func testCalendar() *Calendar {
	day1 := time.Date(2025, time.March, 10, 19, 0, 0, 0, time.Local)
	day2 := time.Date(2025, time.March, 12, 19, 0, 0, 0, time.Local)
	return &Calendar{
		Events: []Event{
			{
				Day:        "День 1",
				StartsAt:   day1,
				DayBefore:  day1.AddDate(0, 0, -1),
				HourBefore: day1.Add(-time.Hour),
				After:      day1.Add(2 * time.Hour),
			},
			{
				Day:        "День 2",
				StartsAt:   day2,
				DayBefore:  day2.AddDate(0, 0, -1),
				HourBefore: day2.Add(-time.Hour),
				After:      day2.Add(2 * time.Hour),
			},
		},
		EndAt: time.Date(2025, time.March, 14, 12, 0, 0, 0, time.Local),
	}
}

func newTestScheduler(cal *Calendar, users *fakeUserLister, fanout *fakeBroadcaster, now time.Time) *Scheduler {
	s := New(cal, users, fanout, time.Minute)
	s.now = func() time.Time { return now }
	return s
}

func TestCheckReminders_HourBeforeMatchesExactlyOne(t *testing.T) {
	cal := testCalendar()
	users := &fakeUserLister{ids: []int64{1, 2, 3}}
	fanout := &fakeBroadcaster{}

	// 18:00 on day 1 is exactly the hour-before instant of the first
	// broadcast and matches nothing on the second.
	s := newTestScheduler(cal, users, fanout, cal.Events[0].HourBefore.Add(15*time.Second))

	require.NoError(t, s.CheckReminders(context.Background()))

	require.Len(t, fanout.calls, 1)
	assert.Equal(t, []int64{1, 2, 3}, fanout.calls[0].recipients)
	assert.Equal(t, HourBeforeMessage(cal.Events[0]), fanout.calls[0].text)
}

func TestCheckReminders_NoMatchNoFanout(t *testing.T) {
	cal := testCalendar()
	fanout := &fakeBroadcaster{}
	s := newTestScheduler(cal, &fakeUserLister{ids: []int64{1}}, fanout,
		time.Date(2025, time.March, 11, 3, 33, 0, 0, time.Local))

	require.NoError(t, s.CheckReminders(context.Background()))
	assert.Empty(t, fanout.calls)
}

func TestCheckReminders_DayBeforeMessage(t *testing.T) {
	cal := testCalendar()
	fanout := &fakeBroadcaster{}
	s := newTestScheduler(cal, &fakeUserLister{ids: []int64{7}}, fanout, cal.Events[1].DayBefore)

	require.NoError(t, s.CheckReminders(context.Background()))

	require.Len(t, fanout.calls, 1)
	assert.Equal(t, DayBeforeMessage(cal.Events[1]), fanout.calls[0].text)
}

func TestCheckReminders_MarathonEnd(t *testing.T) {
	cal := testCalendar()
	fanout := &fakeBroadcaster{}
	s := newTestScheduler(cal, &fakeUserLister{ids: []int64{1, 2}}, fanout, cal.EndAt)

	require.NoError(t, s.CheckReminders(context.Background()))

	require.Len(t, fanout.calls, 1)
	assert.Equal(t, MarathonEndMessage, fanout.calls[0].text)
}

func TestCheckReminders_NoUsersSkips(t *testing.T) {
	cal := testCalendar()
	fanout := &fakeBroadcaster{}
	s := newTestScheduler(cal, &fakeUserLister{}, fanout, cal.Events[0].HourBefore)

	require.NoError(t, s.CheckReminders(context.Background()))
	assert.Empty(t, fanout.calls)
}

func TestCheckReminders_StoreErrorPropagates(t *testing.T) {
	cal := testCalendar()
	fanout := &fakeBroadcaster{}
	s := newTestScheduler(cal, &fakeUserLister{err: errors.New("connection refused")}, fanout, cal.Events[0].HourBefore)

	err := s.CheckReminders(context.Background())
	require.Error(t, err)
	assert.Empty(t, fanout.calls)
}

func TestRun_SurvivesFailingTicks(t *testing.T) {
	cal := testCalendar()
	users := &fakeUserLister{err: errors.New("connection refused")}
	s := New(cal, users, &fakeBroadcaster{}, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
		// loop exited only because the context ended, not because of
		// the failing store
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}
