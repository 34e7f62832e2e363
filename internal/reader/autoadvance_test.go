package reader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readaloud/internal/settings"
)

func enableAutoRead(t *testing.T, f *fixture, loop bool) {
	t.Helper()
	require.NoError(t, f.settings.Set(settings.AutoRead, true))
	require.NoError(t, f.settings.Set(settings.LoopReading, loop))
}

func TestAutoAdvanceReadsNextPage(t *testing.T) {
	f := newFixture(t, "one\ftwo\fthree")
	enableAutoRead(t, f, false)

	f.session.Perform(CmdReadAloud, "")
	f.finish()
	assert.True(t, f.session.AutoAdvance().Pending())
	assert.Equal(t, 1, f.session.Pages().Current())

	f.sched.Advance(settle)
	assert.Equal(t, 2, f.session.Pages().Current())
	assert.Equal(t, []string{"one", "two"}, f.spoken())
	assert.Equal(t, Speaking, f.session.Speech().State())
	assert.Equal(t, 2, f.session.Speech().Origin().Page)
}

func TestAutoAdvanceWaitsForSettleDelay(t *testing.T) {
	f := newFixture(t, "one\ftwo")
	enableAutoRead(t, f, false)

	f.session.Perform(CmdReadAloud, "")
	f.finish()
	f.sched.Advance(settle / 2)
	assert.Equal(t, []string{"one"}, f.spoken())
	f.sched.Advance(settle / 2)
	assert.Equal(t, []string{"one", "two"}, f.spoken())
}

func TestLoopWrapsToFirstPage(t *testing.T) {
	f := newFixture(t, "one\ftwo")
	enableAutoRead(t, f, true)

	f.session.Perform(CmdNextPage, "")
	f.session.Perform(CmdReadAloud, "")
	f.finish()
	f.sched.Advance(settle)

	assert.Equal(t, 1, f.session.Pages().Current())
	assert.Equal(t, []string{"two", "one"}, f.spoken())
	assert.Equal(t, Speaking, f.session.Speech().State())
}

func TestLastPageWithoutLoopEnds(t *testing.T) {
	f := newFixture(t, "one\ftwo")
	enableAutoRead(t, f, false)

	f.session.Perform(CmdNextPage, "")
	f.session.Perform(CmdReadAloud, "")
	f.finish()
	f.sched.Advance(settle)

	assert.Equal(t, Idle, f.session.Speech().State())
	assert.Equal(t, 2, f.session.Pages().Current())
	assert.Equal(t, []string{"two"}, f.spoken())
	assert.Equal(t, "Finished reading", f.region.Last())
}

func TestStopDuringSettleDelayDiscardsContinuation(t *testing.T) {
	f := newFixture(t, "one\ftwo")
	enableAutoRead(t, f, false)

	f.session.Perform(CmdReadAloud, "")
	f.finish()
	f.session.Perform(CmdStopReading, "")
	assert.Equal(t, "Stopped reading", f.region.Last())

	f.sched.Advance(5 * settle)
	assert.Equal(t, []string{"one"}, f.spoken())
	assert.Equal(t, 1, f.session.Pages().Current())
	assert.Equal(t, Idle, f.session.Speech().State())
}

func TestPauseDuringSettleDelayDiscardsContinuation(t *testing.T) {
	f := newFixture(t, "one\ftwo")
	enableAutoRead(t, f, false)

	f.session.Perform(CmdReadAloud, "")
	f.finish()
	require.True(t, f.session.AutoAdvance().Pending())
	f.session.Perform(CmdPause, "")
	assert.Equal(t, "Paused before the next page", f.region.Last())
	assert.False(t, f.session.AutoAdvance().Pending())

	f.sched.Advance(5 * settle)
	assert.Equal(t, []string{"one"}, f.spoken())
	assert.Equal(t, 1, f.session.Pages().Current())
	assert.Equal(t, Idle, f.session.Speech().State())
}

func TestSpaceDuringSettleDelayPausesInsteadOfRereading(t *testing.T) {
	f := newFixture(t, "one\ftwo")
	enableAutoRead(t, f, false)

	f.session.Perform(CmdReadAloud, "")
	f.finish()
	assert.True(t, f.session.HandleKey(" "))
	assert.Equal(t, "Paused before the next page", f.region.Last())

	f.sched.Advance(5 * settle)
	assert.Equal(t, []string{"one"}, f.spoken())
	assert.Equal(t, 1, f.session.Pages().Current())
}

func TestCompletionWhilePausedDoesNotAdvance(t *testing.T) {
	f := newFixture(t, "one\ftwo")
	enableAutoRead(t, f, false)

	f.session.Perform(CmdReadAloud, "")
	f.session.Perform(CmdPause, "")
	f.finish()
	assert.False(t, f.session.AutoAdvance().Pending())

	f.sched.Advance(5 * settle)
	assert.Equal(t, []string{"one"}, f.spoken())
	assert.Equal(t, Paused, f.session.Speech().State())

	// resuming completes the held utterance and continues as usual
	f.session.Perform(CmdResume, "")
	assert.True(t, f.session.AutoAdvance().Pending())
	f.sched.Advance(settle)
	assert.Equal(t, []string{"one", "two"}, f.spoken())
	assert.Equal(t, 2, f.session.Pages().Current())
}

func TestContinuationRevalidatesEvenIfTimerFires(t *testing.T) {
	f := newFixture(t, "one\ftwo")
	enableAutoRead(t, f, false)
	auto := f.session.AutoAdvance()

	f.session.Perform(CmdReadAloud, "")
	f.finish()

	// A timer whose Stop came too late still runs; the token must stop it.
	stale := auto.token
	auto.token++
	auto.fire(stale, 1, 2)
	assert.Equal(t, []string{"one"}, f.spoken())
}

func TestNewUtteranceCancelsPendingAdvance(t *testing.T) {
	f := newFixture(t, "one\ftwo\fthree")
	enableAutoRead(t, f, false)

	f.session.Perform(CmdReadAloud, "")
	f.finish()
	f.session.Perform(CmdRepeatPage, "")
	assert.False(t, f.session.AutoAdvance().Pending())

	f.sched.Advance(settle)
	assert.Equal(t, []string{"one", "one"}, f.spoken())
	assert.Equal(t, 1, f.session.Pages().Current())
}

func TestManualNavigationDuringDelayDiscardsContinuation(t *testing.T) {
	f := newFixture(t, "one\ftwo\fthree")
	enableAutoRead(t, f, false)

	f.session.Perform(CmdReadAloud, "")
	f.finish()
	f.session.Perform(CmdNextPage, "")
	f.sched.Advance(settle)

	assert.Equal(t, 2, f.session.Pages().Current())
	assert.Equal(t, []string{"one"}, f.spoken())
}

func TestAutoReadOffMidUtteranceFinishesThenStops(t *testing.T) {
	f := newFixture(t, "one\ftwo")
	enableAutoRead(t, f, false)

	f.session.Perform(CmdReadAloud, "")
	f.session.Perform(CmdToggleAutoRead, "")
	assert.Equal(t, "Auto read off", f.region.Last())
	assert.Equal(t, Speaking, f.session.Speech().State())

	f.finish()
	f.sched.Advance(settle)
	assert.Equal(t, Idle, f.session.Speech().State())
	assert.Equal(t, []string{"one"}, f.spoken())
}

func TestAutoReadOffDuringDelayDiscardsContinuation(t *testing.T) {
	f := newFixture(t, "one\ftwo")
	enableAutoRead(t, f, false)

	f.session.Perform(CmdReadAloud, "")
	f.finish()
	require.NoError(t, f.settings.Set(settings.AutoRead, false))
	f.sched.Advance(settle)
	assert.Equal(t, []string{"one"}, f.spoken())
}

func TestEngineErrorDoesNotAdvance(t *testing.T) {
	f := newFixture(t, "one\ftwo")
	enableAutoRead(t, f, false)

	f.session.Perform(CmdReadAloud, "")
	before := len(f.region.Announcements())
	f.engine.Fail(f.engine.Last(), errors.New("device busy"))

	assert.Equal(t, Idle, f.session.Speech().State())
	assert.False(t, f.session.AutoAdvance().Pending())
	assert.Len(t, f.region.Announcements(), before+1)
	assert.Equal(t, "Speech failed", f.region.Last())
	f.sched.Advance(settle)
	assert.Equal(t, []string{"one"}, f.spoken())
}

func TestAutoAdvanceReportsTextFailure(t *testing.T) {
	f := newFixture(t, "one\ftwo")
	enableAutoRead(t, f, false)

	auto := f.session.AutoAdvance()
	auto.text = func(page int) (string, error) {
		if page == 2 {
			return "", errors.New("corrupt page")
		}
		return "one", nil
	}

	f.session.Perform(CmdReadAloud, "")
	f.finish()
	f.sched.Advance(settle)

	assert.Equal(t, Idle, f.session.Speech().State())
	assert.Equal(t, "Something went wrong", f.region.Last())
}

func TestAutoReadDisabledDoesNothing(t *testing.T) {
	f := newFixture(t, "one\ftwo")

	f.session.Perform(CmdReadAloud, "")
	f.finish()
	assert.False(t, f.session.AutoAdvance().Pending())

	f.sched.Advance(settle)
	assert.Equal(t, []string{"one"}, f.spoken())
	assert.Equal(t, 1, f.session.Pages().Current())
}
