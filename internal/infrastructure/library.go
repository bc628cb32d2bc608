package infrastructure

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

// Library tracks editions present on disk. The downloaded set is cached in
// memory so IsDownloaded can be called from the event loop.
type Library struct {
	repo      domain.EditionRepository
	dir       string
	analytics domain.AnalyticsSink
	logger    *zap.Logger

	mu    sync.RWMutex
	paths map[domain.EditionID]string
}

// NewLibrary creates a library rooted at dir
func NewLibrary(repo domain.EditionRepository, dir string, analytics domain.AnalyticsSink, logger *zap.Logger) *Library {
	return &Library{
		repo:      repo,
		dir:       dir,
		analytics: analytics,
		logger:    logger,
		paths:     make(map[domain.EditionID]string),
	}
}

// Load reads the downloaded set from the repository, forgetting editions
// whose content is gone from disk
func (l *Library) Load() error {
	records, err := l.repo.ListDownloaded()
	if err != nil {
		return fmt.Errorf("failed to list downloaded editions: %w", err)
	}

	paths := make(map[domain.EditionID]string, len(records))
	for _, record := range records {
		if _, err := os.Stat(record.Path); err != nil {
			l.logger.Warn("Downloaded edition missing on disk, forgetting it",
				zap.String("edition_id", string(record.EditionID)),
				zap.String("path", record.Path))
			if err := l.repo.DeleteDownloaded(record.EditionID); err != nil {
				return fmt.Errorf("failed to forget edition %s: %w", record.EditionID, err)
			}
			continue
		}
		paths[record.EditionID] = record.Path
	}

	l.mu.Lock()
	l.paths = paths
	l.mu.Unlock()

	l.logger.Info("Library loaded", zap.Int("downloaded", len(paths)))
	return nil
}

// Dir returns the directory downloaded editions live in
func (l *Library) Dir() string {
	return l.dir
}

// Add records a fully written edition
func (l *Library) Add(id domain.EditionID, path string) error {
	if err := l.repo.MarkDownloaded(&domain.DownloadedEdition{EditionID: id, Path: path}); err != nil {
		return fmt.Errorf("failed to record downloaded edition: %w", err)
	}

	l.mu.Lock()
	l.paths[id] = path
	l.mu.Unlock()
	return nil
}

// IsDownloaded reports whether the edition is on disk
func (l *Library) IsDownloaded(id domain.EditionID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.paths[id]
	return ok
}

// Path returns the content directory of a downloaded edition
func (l *Library) Path(id domain.EditionID) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	path, ok := l.paths[id]
	return path, ok
}

// Downloaded returns all downloaded editions
func (l *Library) Downloaded() ([]domain.DownloadedEdition, error) {
	return l.repo.ListDownloaded()
}

// Delete removes a downloaded edition from disk
func (l *Library) Delete(ctx context.Context, id domain.EditionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, ok := l.Path(id)
	if !ok {
		return domain.ErrNotDownloaded
	}

	l.mu.Lock()
	delete(l.paths, id)
	l.mu.Unlock()

	if err := os.RemoveAll(path); err != nil {
		l.mu.Lock()
		l.paths[id] = path
		l.mu.Unlock()
		return fmt.Errorf("failed to remove edition content: %w", err)
	}

	if err := l.repo.DeleteDownloaded(id); err != nil {
		return fmt.Errorf("failed to forget downloaded edition: %w", err)
	}

	recordEvent(l.analytics, "edition_deleted", id)
	return nil
}

// DiskUsage returns the total size of the edition's files
func (l *Library) DiskUsage(ctx context.Context, id domain.EditionID) (int64, error) {
	path, ok := l.Path(id)
	if !ok {
		return 0, domain.ErrNotDownloaded
	}

	var total int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to measure edition %s: %w", id, err)
	}
	return total, nil
}
