package app

import (
	"context"
	"fmt"

	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

// Loop is the serialized executor a session runs on
type Loop interface {
	Dispatcher
	Call(ctx context.Context, task func()) error
}

// SessionOptions configures a Session
type SessionOptions struct {
	Loop             Loop
	Catalog          domain.ItemCatalog
	Downloads        domain.DownloadService
	Downloaded       domain.DownloadedEditions
	DiskUsage        domain.DiskUsageProvider
	Presenter        domain.ContentPresenter
	Covers           domain.CoverProvider
	Notifier         domain.Notifier
	Layout           Layout
	CoverConcurrency int
	Logger           *zap.Logger
}

// Session is the edition list screen: it owns the coordinator, the gate and
// the grid and routes user input to them on the event loop. Its exported
// methods are safe for concurrent use and must not be called from the loop.
type Session struct {
	ctx         context.Context
	loop        Loop
	catalog     domain.ItemCatalog
	downloaded  domain.DownloadedEditions
	notifier    domain.Notifier
	coordinator *DownloadCoordinator
	gate        *PresentationGate
	grid        *Grid
	layout      Layout
	logger      *zap.Logger
}

// NewSession creates a new session. ctx bounds presentation and the
// background loads started by the grid.
func NewSession(ctx context.Context, opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	coordinator := NewDownloadCoordinator(opts.Downloads, opts.Downloaded, opts.Loop, logger)
	s := &Session{
		ctx:         ctx,
		loop:        opts.Loop,
		catalog:     opts.Catalog,
		downloaded:  opts.Downloaded,
		notifier:    opts.Notifier,
		coordinator: coordinator,
		gate:        NewPresentationGate(coordinator, opts.Downloaded, opts.Presenter, opts.Notifier, logger),
		grid: NewGrid(ctx, GridOptions{
			Coordinator:      coordinator,
			Downloaded:       opts.Downloaded,
			DiskUsage:        opts.DiskUsage,
			Covers:           opts.Covers,
			Dispatcher:       opts.Loop,
			Layout:           opts.Layout,
			CoverConcurrency: opts.CoverConcurrency,
			Logger:           logger,
		}),
		layout: opts.Layout,
		logger: logger,
	}
	coordinator.SetObserver(s)
	return s
}

// Load updates the feed, fetches the catalog and rebinds the grid. A failure
// leaves the grid as it was and is shown as a notice.
func (s *Session) Load(ctx context.Context) error {
	editions, err := s.fetch(ctx)
	if err != nil {
		s.logger.Error("catalog_refresh_failed", zap.Error(err))
		s.notifier.Notify(domain.NoticeError, CatalogRefreshFailedMessage(err))
		return err
	}

	s.logger.Info("catalog_refreshed", zap.Int("editions", len(editions)))
	return s.loop.Call(ctx, func() { s.grid.Reload(editions) })
}

func (s *Session) fetch(ctx context.Context) ([]domain.Edition, error) {
	if err := s.catalog.UpdateFeed(ctx); err != nil {
		return nil, fmt.Errorf("update feed: %w", err)
	}
	editions, err := s.catalog.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh catalog: %w", err)
	}
	return editions, nil
}

// Tap activates the cell of an edition
func (s *Session) Tap(ctx context.Context, id domain.EditionID) (ActivateResult, error) {
	var (
		result ActivateResult
		err    error
	)
	callErr := s.loop.Call(ctx, func() {
		if _, ok := s.grid.Edition(id); !ok {
			err = domain.ErrEditionNotFound
			return
		}
		result, err = s.gate.Activate(s.ctx, id)
	})
	if callErr != nil {
		return ActivateResult{}, callErr
	}
	return result, err
}

// LongPress cancels an active download of the edition and deletes its
// downloaded content
func (s *Session) LongPress(ctx context.Context, id domain.EditionID) (Signal, error) {
	var (
		signal = SignalNone
		err    error
	)
	callErr := s.loop.Call(ctx, func() {
		if _, ok := s.grid.Edition(id); !ok {
			err = domain.ErrEditionNotFound
			return
		}
		if s.coordinator.IsActive(id) {
			signal, err = s.coordinator.Toggle(s.ctx, id)
		}
	})
	if callErr != nil {
		return SignalNone, callErr
	}
	if err != nil {
		return signal, err
	}

	if s.downloaded.IsDownloaded(id) {
		if err := s.downloaded.Delete(ctx, id); err != nil {
			s.logger.Error("edition_delete_failed", zap.String("edition_id", string(id)), zap.Error(err))
			s.notifier.Notify(domain.NoticeError, DeleteFailedMessage(err))
			return signal, err
		}
		s.logger.Info("edition_deleted", zap.String("edition_id", string(id)))
	}

	if err := s.loop.Post(func() { s.grid.Update(id) }); err != nil {
		return signal, err
	}
	return signal, nil
}

// Cells returns a snapshot of the grid
func (s *Session) Cells(ctx context.Context) ([]CellState, error) {
	var cells []CellState
	if err := s.loop.Call(ctx, func() { cells = s.grid.Cells() }); err != nil {
		return nil, err
	}
	return cells, nil
}

// Cell returns a snapshot of one cell
func (s *Session) Cell(ctx context.Context, id domain.EditionID) (CellState, error) {
	var (
		state CellState
		ok    bool
	)
	if err := s.loop.Call(ctx, func() { state, ok = s.grid.Cell(id) }); err != nil {
		return CellState{}, err
	}
	if !ok {
		return CellState{}, domain.ErrEditionNotFound
	}
	return state, nil
}

// ActiveDownloads returns the state of every active download
func (s *Session) ActiveDownloads(ctx context.Context) (map[domain.EditionID]DownloadState, error) {
	var out map[domain.EditionID]DownloadState
	if err := s.loop.Call(ctx, func() { out = s.coordinator.Snapshot() }); err != nil {
		return nil, err
	}
	return out, nil
}

// Subscribe registers fn for grid events. fn runs on the event loop and
// must not block.
func (s *Session) Subscribe(ctx context.Context, fn func(GridEvent)) (func(), error) {
	var unsubscribe func()
	if err := s.loop.Call(ctx, func() { unsubscribe = s.grid.Subscribe(fn) }); err != nil {
		return nil, err
	}
	return func() { _ = s.loop.Post(unsubscribe) }, nil
}

// Layout returns the grid layout
func (s *Session) Layout() Layout {
	return s.layout
}

// Shutdown cancels every active download
func (s *Session) Shutdown(ctx context.Context) error {
	return s.loop.Call(ctx, s.coordinator.CancelAll)
}

// EditionChanged implements CoordinatorObserver
func (s *Session) EditionChanged(id domain.EditionID) {
	s.grid.Update(id)
}

// DownloadDrained implements CoordinatorObserver
func (s *Session) DownloadDrained(id domain.EditionID) {
	s.gate.OnDownloadCoordinatorDrained(s.ctx, id)
}

// DownloadFailed implements CoordinatorObserver
func (s *Session) DownloadFailed(id domain.EditionID, err error) {
	s.notifier.Notify(domain.NoticeError, DownloadFailedMessage(err))
}
