package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

// Signal is the outcome of a coordinator operation
type Signal string

const (
	SignalNone           Signal = "none"
	SignalShouldPresent  Signal = "should_present"
	SignalDownloading    Signal = "downloading"
	SignalCancelled      Signal = "cancelled"
	SignalReadyToPresent Signal = "ready_to_present"
	SignalFailed         Signal = "failed"
)

// CoordinatorObserver is told about coordinator state changes
type CoordinatorObserver interface {
	// EditionChanged asks for the edition's cell to be re-rendered
	EditionChanged(id domain.EditionID)

	// DownloadDrained reports a completion that left no active downloads
	DownloadDrained(id domain.EditionID)

	// DownloadFailed reports a terminal failure of the active download
	DownloadFailed(id domain.EditionID, err error)
}

// HandleRef identifies one download attempt. The stamp is the SDK's attempt
// id and distinguishes a cancelled attempt from a later one for the same
// edition.
type HandleRef struct {
	EditionID domain.EditionID
	Stamp     string
}

// DownloadState is the observable state of an active download
type DownloadState struct {
	Stamp     string          `json:"stamp"`
	Progress  domain.Progress `json:"progress"`
	Preparing bool            `json:"preparing"`
	StartedAt time.Time       `json:"started_at"`
}

type activeDownload struct {
	handle domain.DownloadHandle
	state  DownloadState
}

// DownloadCoordinator enforces at most one active download per edition.
// It is not safe for concurrent use: every method must run on the event loop.
type DownloadCoordinator struct {
	service    domain.DownloadService
	downloaded domain.DownloadedEditions
	dispatcher Dispatcher
	observer   CoordinatorObserver
	logger     *zap.Logger
	active     map[domain.EditionID]*activeDownload
}

// NewDownloadCoordinator creates a new download coordinator
func NewDownloadCoordinator(
	service domain.DownloadService,
	downloaded domain.DownloadedEditions,
	dispatcher Dispatcher,
	logger *zap.Logger,
) *DownloadCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadCoordinator{
		service:    service,
		downloaded: downloaded,
		dispatcher: dispatcher,
		observer:   nopObserver{},
		logger:     logger,
		active:     make(map[domain.EditionID]*activeDownload),
	}
}

// SetObserver sets the observer notified about state changes
func (c *DownloadCoordinator) SetObserver(observer CoordinatorObserver) {
	if observer == nil {
		observer = nopObserver{}
	}
	c.observer = observer
}

// Toggle is the only way to start or cancel a download. A downloaded edition
// signals SignalShouldPresent; an active download is cancelled; otherwise a
// new download is started.
func (c *DownloadCoordinator) Toggle(ctx context.Context, id domain.EditionID) (Signal, error) {
	if c.downloaded.IsDownloaded(id) {
		return SignalShouldPresent, nil
	}

	if entry, ok := c.active[id]; ok {
		entry.handle.Cancel()
		delete(c.active, id)

		c.logger.Info("download_cancelled",
			zap.String("edition_id", string(id)),
			zap.String("stamp", entry.state.Stamp))

		c.observer.EditionChanged(id)
		return SignalCancelled, nil
	}

	listener := &attemptListener{coordinator: c, editionID: id}
	handle, err := c.service.Start(ctx, id, listener)
	if err != nil {
		c.logger.Warn("download_start_failed",
			zap.String("edition_id", string(id)),
			zap.Error(err))
		return SignalNone, fmt.Errorf("start download for edition %s: %w", id, err)
	}

	// callbacks are posted to the loop, so none runs before the stamp is set
	listener.stamp = handle.ID()
	ref := HandleRef{EditionID: id, Stamp: listener.stamp}

	c.active[id] = &activeDownload{
		handle: handle,
		state: DownloadState{
			Stamp:     ref.Stamp,
			Progress:  domain.IndeterminateProgress,
			StartedAt: time.Now(),
		},
	}

	c.logger.Info("download_started",
		zap.String("edition_id", string(id)),
		zap.String("stamp", ref.Stamp),
		zap.Int("active", len(c.active)))

	c.observer.EditionChanged(id)
	return SignalDownloading, nil
}

// OnWillStart handles the SDK's will-start callback
func (c *DownloadCoordinator) OnWillStart(ref HandleRef) {
	if c.lookup(ref) == nil {
		return
	}
	c.observer.EditionChanged(ref.EditionID)
}

// OnProgress records progress for the attempt. It returns false, changing
// nothing, when ref is no longer the active attempt for its edition.
func (c *DownloadCoordinator) OnProgress(ref HandleRef, progress float64, preparing bool) bool {
	entry := c.lookup(ref)
	if entry == nil {
		return false
	}

	entry.state.Progress = entry.state.Progress.Advance(domain.NewProgress(progress))
	entry.state.Preparing = preparing

	c.observer.EditionChanged(ref.EditionID)
	return true
}

// OnCompleted removes the attempt. It signals SignalReadyToPresent only when
// no other edition has an active download at that moment.
func (c *DownloadCoordinator) OnCompleted(ref HandleRef) Signal {
	entry := c.lookup(ref)
	if entry == nil {
		// The SDK may have finished writing before the cancel reached it.
		// Refresh the cell but never present.
		c.observer.EditionChanged(ref.EditionID)
		return SignalNone
	}

	delete(c.active, ref.EditionID)

	c.logger.Info("download_completed",
		zap.String("edition_id", string(ref.EditionID)),
		zap.String("stamp", ref.Stamp),
		zap.Duration("elapsed", time.Since(entry.state.StartedAt)),
		zap.Int("active", len(c.active)))

	c.observer.EditionChanged(ref.EditionID)

	if len(c.active) > 0 {
		return SignalNone
	}

	c.observer.DownloadDrained(ref.EditionID)
	return SignalReadyToPresent
}

// OnFailed removes the attempt and reports the failure. Failures are not retried.
func (c *DownloadCoordinator) OnFailed(ref HandleRef, err error) Signal {
	if c.lookup(ref) == nil {
		return SignalNone
	}

	delete(c.active, ref.EditionID)

	c.logger.Warn("download_failed",
		zap.String("edition_id", string(ref.EditionID)),
		zap.String("stamp", ref.Stamp),
		zap.Error(err))

	c.observer.DownloadFailed(ref.EditionID, err)
	c.observer.EditionChanged(ref.EditionID)
	return SignalFailed
}

// IsActive reports whether the edition has an active download
func (c *DownloadCoordinator) IsActive(id domain.EditionID) bool {
	_, ok := c.active[id]
	return ok
}

// ProgressOf returns the progress of the edition's active download
func (c *DownloadCoordinator) ProgressOf(id domain.EditionID) (domain.Progress, bool) {
	entry, ok := c.active[id]
	if !ok {
		return domain.Progress{}, false
	}
	return entry.state.Progress, true
}

// StateOf returns the full state of the edition's active download
func (c *DownloadCoordinator) StateOf(id domain.EditionID) (DownloadState, bool) {
	entry, ok := c.active[id]
	if !ok {
		return DownloadState{}, false
	}
	return entry.state, true
}

// Snapshot returns the state of every active download
func (c *DownloadCoordinator) Snapshot() map[domain.EditionID]DownloadState {
	out := make(map[domain.EditionID]DownloadState, len(c.active))
	for id, entry := range c.active {
		out[id] = entry.state
	}
	return out
}

// CancelAll cancels every active download. Used on shutdown.
func (c *DownloadCoordinator) CancelAll() {
	for id, entry := range c.active {
		entry.handle.Cancel()
		delete(c.active, id)
		c.observer.EditionChanged(id)
	}
}

func (c *DownloadCoordinator) lookup(ref HandleRef) *activeDownload {
	entry, ok := c.active[ref.EditionID]
	if !ok || entry.state.Stamp != ref.Stamp {
		c.logger.Debug("stale download callback ignored",
			zap.String("edition_id", string(ref.EditionID)),
			zap.String("stamp", ref.Stamp))
		return nil
	}
	return entry
}

// attemptListener forwards SDK callbacks of one attempt onto the event loop
type attemptListener struct {
	coordinator *DownloadCoordinator
	editionID   domain.EditionID
	stamp       string // set on the loop once Start returns
}

func (l *attemptListener) ref() HandleRef {
	return HandleRef{EditionID: l.editionID, Stamp: l.stamp}
}

func (l *attemptListener) WillStart() {
	l.post(func() { l.coordinator.OnWillStart(l.ref()) })
}

func (l *attemptListener) Progress(progress float64, preparing bool) {
	l.post(func() { l.coordinator.OnProgress(l.ref(), progress, preparing) })
}

func (l *attemptListener) Completed() {
	l.post(func() { l.coordinator.OnCompleted(l.ref()) })
}

func (l *attemptListener) Failed(err error) {
	l.post(func() { l.coordinator.OnFailed(l.ref(), err) })
}

func (l *attemptListener) post(task func()) {
	if err := l.coordinator.dispatcher.Post(task); err != nil {
		l.coordinator.logger.Debug("download callback dropped",
			zap.String("edition_id", string(l.editionID)),
			zap.Error(err))
	}
}

type nopObserver struct{}

func (nopObserver) EditionChanged(domain.EditionID)        {}
func (nopObserver) DownloadDrained(domain.EditionID)       {}
func (nopObserver) DownloadFailed(domain.EditionID, error) {}
