package infrastructure

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

// Editions is the SDK entry point. It owns the catalog, the library, the
// download service and the presenter, all backed by one repository.
type Editions struct {
	config    *domain.Config
	repo      *SQLiteRepository
	tokens    domain.TokenProvider
	analytics domain.AnalyticsSink
	logger    *zap.Logger

	Catalog   *FeedCatalog
	Library   *Library
	Downloads *DownloadService
	Presenter *Presenter

	mu          sync.RWMutex
	initialized bool
}

// NewEditions wires the SDK components. ctx bounds the downloads it starts.
func NewEditions(
	ctx context.Context,
	config *domain.Config,
	repo *SQLiteRepository,
	tokens domain.TokenProvider,
	analytics domain.AnalyticsSink,
	logger *zap.Logger,
) *Editions {
	library := NewLibrary(repo, config.Download.EditionsDir(), analytics, logger)
	query := domain.EditionQuery{
		ProductTags: config.Editions.ProductTags,
		PageSize:    config.Editions.PageSize,
	}

	return &Editions{
		config:    config,
		repo:      repo,
		tokens:    tokens,
		analytics: analytics,
		logger:    logger,
		Catalog:   NewFeedCatalog(config.Editions.FeedPath, query, repo, tokens, logger),
		Library:   library,
		Downloads: NewDownloadService(ctx, &config.Download, repo, repo, library, tokens, analytics, logger),
		Presenter: NewPresenter(repo, library, tokens, analytics, logger),
	}
}

// Initialize prepares storage and loads the downloaded set. It must succeed
// before the grid is shown.
func (e *Editions) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// partial content of attempts interrupted by a previous shutdown
	if err := os.RemoveAll(e.config.Download.IncomingDir()); err != nil {
		return fmt.Errorf("failed to clear incoming directory: %w", err)
	}
	for _, dir := range []string{e.config.Download.IncomingDir(), e.config.Download.EditionsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if err := e.Library.Load(); err != nil {
		return err
	}

	if !e.tokens.HasToken() {
		e.logger.Warn("No access token configured, downloads will be denied")
	}

	e.mu.Lock()
	e.initialized = true
	e.mu.Unlock()

	e.logger.Info("Editions SDK initialized",
		zap.String("bundle_id", e.config.Editions.BundleID),
		zap.String("editions_dir", e.config.Download.EditionsDir()))
	return nil
}

// Initialized reports whether Initialize has succeeded
func (e *Editions) Initialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialized
}

// LastOpened returns the most recently presented edition, or nil
func (e *Editions) LastOpened() *domain.Presentation {
	return e.Presenter.Last()
}

// Stats returns download attempt statistics
func (e *Editions) Stats() (*domain.DownloadStats, error) {
	return e.repo.GetStats()
}

// Attempts returns the download history of an edition
func (e *Editions) Attempts(id domain.EditionID) ([]*domain.DownloadAttempt, error) {
	return e.repo.FindAttemptsByEdition(id)
}

// Close waits for running downloads to stop
func (e *Editions) Close() {
	e.Downloads.Wait()
}
