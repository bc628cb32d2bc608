package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/editions-go/internal/domain"
)

type coordinatorFixture struct {
	coordinator *DownloadCoordinator
	service     *fakeDownloadService
	downloaded  *fakeDownloaded
	dispatcher  *manualDispatcher
	observer    *recordingObserver
}

func newCoordinatorFixture(downloaded ...domain.EditionID) *coordinatorFixture {
	f := &coordinatorFixture{
		service:    &fakeDownloadService{},
		downloaded: newFakeDownloaded(downloaded...),
		dispatcher: &manualDispatcher{},
		observer:   newRecordingObserver(),
	}
	f.coordinator = NewDownloadCoordinator(f.service, f.downloaded, f.dispatcher, nil)
	f.coordinator.SetObserver(f.observer)
	return f
}

func (f *coordinatorFixture) toggle(t *testing.T, id domain.EditionID) Signal {
	t.Helper()
	signal, err := f.coordinator.Toggle(context.Background(), id)
	require.NoError(t, err)
	return signal
}

func TestToggle_DownloadedEditionShouldPresent(t *testing.T) {
	f := newCoordinatorFixture("a")

	signal := f.toggle(t, "a")

	assert.Equal(t, SignalShouldPresent, signal)
	assert.False(t, f.coordinator.IsActive("a"))
	assert.Empty(t, f.service.handles, "no download should be requested")
	assert.Empty(t, f.observer.changed)
}

func TestToggle_StartsExactlyOneHandle(t *testing.T) {
	f := newCoordinatorFixture()

	signal := f.toggle(t, "a")

	assert.Equal(t, SignalDownloading, signal)
	assert.True(t, f.coordinator.IsActive("a"))
	assert.Len(t, f.service.handles, 1)
	assert.Equal(t, 1, len(f.coordinator.Snapshot()))

	progress, ok := f.coordinator.ProgressOf("a")
	require.True(t, ok)
	assert.True(t, progress.Indeterminate)
}

func TestToggle_SecondTapCancels(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")

	signal := f.toggle(t, "a")

	assert.Equal(t, SignalCancelled, signal)
	assert.False(t, f.coordinator.IsActive("a"))
	assert.True(t, f.service.handles[0].cancelled)
	_, ok := f.coordinator.ProgressOf("a")
	assert.False(t, ok)
}

func TestToggle_ThirdTapRestartsWithDistinctHandle(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")
	first := f.service.listeners[0]
	f.toggle(t, "a")

	signal := f.toggle(t, "a")
	require.Equal(t, SignalDownloading, signal)
	require.Len(t, f.service.handles, 2)
	assert.NotSame(t, f.service.handles[0], f.service.handles[1])
	assert.Equal(t, f.service.handles[1].ID(), mustState(t, f.coordinator, "a").Stamp)
	assert.NotEqual(t, f.service.handles[0].ID(), f.service.handles[1].ID())
	assert.False(t, f.service.handles[1].cancelled)

	second := f.service.listeners[1]
	second.Progress(0.3, false)
	f.dispatcher.Flush()

	// Callbacks of the cancelled attempt must not touch the new one
	first.Progress(0.9, true)
	first.Failed(errors.New("connection reset"))
	first.Completed()
	f.dispatcher.Flush()

	state, ok := f.coordinator.StateOf("a")
	require.True(t, ok)
	assert.Equal(t, 0.3, state.Progress.Fraction)
	assert.False(t, state.Preparing)
	assert.Empty(t, f.observer.failed)
	assert.Empty(t, f.observer.drained)
}

func TestToggle_AtMostOneHandlePerEdition(t *testing.T) {
	f := newCoordinatorFixture()
	ids := []domain.EditionID{"a", "b", "a", "c", "a", "b", "a", "c", "c"}

	for _, id := range ids {
		f.toggle(t, id)

		live := make(map[domain.EditionID]int)
		for i, h := range f.service.handles {
			if !h.cancelled {
				live[f.service.editions[i]]++
			}
		}
		for edition, count := range live {
			assert.LessOrEqual(t, count, 1, "edition %s has %d live handles", edition, count)
			assert.True(t, f.coordinator.IsActive(edition))
		}
		assert.Equal(t, len(live), len(f.coordinator.Snapshot()))
	}
}

func TestToggle_StartErrorLeavesNoHandle(t *testing.T) {
	f := newCoordinatorFixture()
	f.service.startErr = &domain.AuthorizationError{Reason: domain.ReasonNoAccess}

	signal, err := f.coordinator.Toggle(context.Background(), "a")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthorizationDenied)
	assert.Equal(t, SignalNone, signal)
	assert.False(t, f.coordinator.IsActive("a"))
}

func TestOnProgress_UpdatesActiveHandle(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")
	listener := f.service.lastListener()

	listener.Progress(0.5, false)
	f.dispatcher.Flush()

	progress, ok := f.coordinator.ProgressOf("a")
	require.True(t, ok)
	assert.Equal(t, 0.5, progress.Fraction)

	listener.Progress(1.0, true)
	f.dispatcher.Flush()

	state, _ := f.coordinator.StateOf("a")
	assert.Equal(t, 1.0, state.Progress.Fraction)
	assert.True(t, state.Preparing)
}

func TestOnProgress_IsMonotonic(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")
	ref := HandleRef{EditionID: "a", Stamp: mustState(t, f.coordinator, "a").Stamp}

	assert.True(t, f.coordinator.OnProgress(ref, 0.6, false))
	assert.True(t, f.coordinator.OnProgress(ref, 0.4, false))

	progress, _ := f.coordinator.ProgressOf("a")
	assert.Equal(t, 0.6, progress.Fraction)
}

func TestOnProgress_CancelledHandleIsNoop(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")
	ref := HandleRef{EditionID: "a", Stamp: mustState(t, f.coordinator, "a").Stamp}
	f.coordinator.OnProgress(ref, 0.2, false)

	f.toggle(t, "a") // cancel at t0
	changedBefore := len(f.observer.changed)

	applied := f.coordinator.OnProgress(ref, 0.8, false) // arrives at t1 > t0

	assert.False(t, applied)
	_, ok := f.coordinator.ProgressOf("a")
	assert.False(t, ok)
	assert.Len(t, f.observer.changed, changedBefore)
}

func TestOnProgress_StaleHandleDoesNotAffectRestart(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")
	old := HandleRef{EditionID: "a", Stamp: mustState(t, f.coordinator, "a").Stamp}
	f.toggle(t, "a")
	f.toggle(t, "a")

	assert.False(t, f.coordinator.OnProgress(old, 0.9, true))

	progress, ok := f.coordinator.ProgressOf("a")
	require.True(t, ok)
	assert.True(t, progress.Indeterminate)
}

func TestOnCompleted_DrainedTriggersReadyToPresent(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")

	f.service.lastListener().Completed()
	f.dispatcher.Flush()

	assert.False(t, f.coordinator.IsActive("a"))
	assert.Equal(t, []domain.EditionID{"a"}, f.observer.drained)
}

func TestOnCompleted_OnlyPresentsWhenQueueDrained(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")
	f.toggle(t, "b")
	refA := HandleRef{EditionID: "a", Stamp: mustState(t, f.coordinator, "a").Stamp}
	refB := HandleRef{EditionID: "b", Stamp: mustState(t, f.coordinator, "b").Stamp}

	// A completes while B is still downloading
	assert.Equal(t, SignalNone, f.coordinator.OnCompleted(refA))
	assert.Empty(t, f.observer.drained)
	assert.True(t, f.coordinator.IsActive("b"))

	// B completes with no handles left
	assert.Equal(t, SignalReadyToPresent, f.coordinator.OnCompleted(refB))
	assert.Equal(t, []domain.EditionID{"b"}, f.observer.drained)
	assert.Equal(t, 0, len(f.coordinator.Snapshot()))
}

func TestOnCompleted_StaleHandleNeverPresents(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")
	ref := HandleRef{EditionID: "a", Stamp: mustState(t, f.coordinator, "a").Stamp}
	f.toggle(t, "a")

	assert.Equal(t, SignalNone, f.coordinator.OnCompleted(ref))
	assert.Empty(t, f.observer.drained)
}

func TestOnFailed_ClearsHandle(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")
	downloadErr := errors.New("disk full")

	f.service.lastListener().Failed(downloadErr)
	f.dispatcher.Flush()

	assert.False(t, f.coordinator.IsActive("a"))
	_, ok := f.coordinator.ProgressOf("a")
	assert.False(t, ok)
	assert.Equal(t, downloadErr, f.observer.failed["a"])
	assert.Empty(t, f.observer.drained)

	// no automatic retry
	assert.Len(t, f.service.handles, 1)
}

func TestOnFailed_StaleHandleIgnored(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")
	ref := HandleRef{EditionID: "a", Stamp: mustState(t, f.coordinator, "a").Stamp}
	f.toggle(t, "a")
	f.toggle(t, "a")

	assert.Equal(t, SignalNone, f.coordinator.OnFailed(ref, domain.ErrDownloadCancelled))
	assert.True(t, f.coordinator.IsActive("a"))
	assert.Empty(t, f.observer.failed)
}

func TestOnWillStart_RefreshesActiveOnly(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")
	listener := f.service.lastListener()
	changedBefore := len(f.observer.changed)

	listener.WillStart()
	f.dispatcher.Flush()
	assert.Len(t, f.observer.changed, changedBefore+1)

	f.toggle(t, "a")
	changedBefore = len(f.observer.changed)
	listener.WillStart()
	f.dispatcher.Flush()
	assert.Len(t, f.observer.changed, changedBefore)
}

func TestCancelAll(t *testing.T) {
	f := newCoordinatorFixture()
	f.toggle(t, "a")
	f.toggle(t, "b")

	f.coordinator.CancelAll()

	assert.Equal(t, 0, len(f.coordinator.Snapshot()))
	for _, h := range f.service.handles {
		assert.True(t, h.cancelled)
	}
}

func mustState(t *testing.T, c *DownloadCoordinator, id domain.EditionID) DownloadState {
	t.Helper()
	state, ok := c.StateOf(id)
	require.True(t, ok)
	return state
}
