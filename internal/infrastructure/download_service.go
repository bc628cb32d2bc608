package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

const payloadFile = "content.bin"

// DownloadService simulates the SDK's edition downloader: content is written
// in chunks to an incoming directory, then moved into the library. At most
// ConcurrentLimit downloads transfer at once; the rest wait queued.
type DownloadService struct {
	config    *domain.DownloadConfig
	repo      domain.EditionRepository
	attempts  domain.AttemptRepository
	library   *Library
	tokens    domain.TokenProvider
	analytics domain.AnalyticsSink
	logger    *zap.Logger

	ctx       context.Context
	semaphore chan struct{}
	wg        sync.WaitGroup
}

// NewDownloadService creates a new download service. Downloads run until
// they finish, are cancelled through their handle, or ctx is done.
func NewDownloadService(
	ctx context.Context,
	config *domain.DownloadConfig,
	repo domain.EditionRepository,
	attempts domain.AttemptRepository,
	library *Library,
	tokens domain.TokenProvider,
	analytics domain.AnalyticsSink,
	logger *zap.Logger,
) *DownloadService {
	limit := config.ConcurrentLimit
	if limit < 1 {
		limit = 1
	}
	return &DownloadService{
		config:    config,
		repo:      repo,
		attempts:  attempts,
		library:   library,
		tokens:    tokens,
		analytics: analytics,
		logger:    logger,
		ctx:       ctx,
		semaphore: make(chan struct{}, limit),
	}
}

// downloadHandle cancels one attempt
type downloadHandle struct {
	id     string
	cancel context.CancelFunc
}

func (h *downloadHandle) ID() string {
	return h.id
}

func (h *downloadHandle) Cancel() {
	h.cancel()
}

// Start begins downloading an edition. Authorization is checked before the
// attempt is queued so a denial is returned synchronously.
func (s *DownloadService) Start(ctx context.Context, id domain.EditionID, listener domain.ProgressListener) (domain.DownloadHandle, error) {
	edition, err := s.repo.FindEdition(id)
	if err != nil {
		return nil, err
	}

	reason := domain.ReasonNoToken
	if s.tokens.HasToken() {
		reason = domain.ReasonNoAccess
	}
	if _, err := s.tokens.Token(ctx, reason, domain.TriggerDownload); err != nil {
		recordEvent(s.analytics, "edition_download_failed", id, "error", err.Error())
		return nil, err
	}

	attempt := domain.NewDownloadAttempt(id)
	if err := s.attempts.CreateAttempt(attempt); err != nil {
		return nil, fmt.Errorf("failed to record download attempt: %w", err)
	}

	downloadCtx, cancel := context.WithCancel(s.ctx)

	s.logger.Info("Download queued",
		zap.String("edition_id", string(id)),
		zap.String("attempt_id", attempt.ID))
	recordEvent(s.analytics, "edition_download_started", id, "attempt_id", attempt.ID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(downloadCtx, edition, attempt, listener)
	}()

	return &downloadHandle{id: attempt.ID, cancel: cancel}, nil
}

// Wait blocks until every started download has stopped
func (s *DownloadService) Wait() {
	s.wg.Wait()
}

func (s *DownloadService) run(ctx context.Context, edition *domain.Edition, attempt *domain.DownloadAttempt, listener domain.ProgressListener) {
	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	case <-ctx.Done():
		s.cancelled(attempt, "")
		return
	}

	listener.WillStart()
	attempt.MarkProcessing()
	s.updateAttempt(attempt)
	listener.Progress(-1, false)

	path, err := s.transfer(ctx, edition, attempt, listener)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrDownloadCancelled) {
			s.cancelled(attempt, path)
			return
		}
		s.failed(attempt, path, err, listener)
		return
	}

	attempt.MarkCompleted(path)
	s.updateAttempt(attempt)

	s.logger.Info("Download completed",
		zap.String("edition_id", string(attempt.EditionID)),
		zap.String("attempt_id", attempt.ID),
		zap.Int64("bytes", attempt.BytesWritten),
		zap.String("path", path))
	recordEvent(s.analytics, "edition_download_completed", attempt.EditionID,
		"attempt_id", attempt.ID,
		"bytes", strconv.FormatInt(attempt.BytesWritten, 10))

	listener.Completed()
}

// transfer writes the payload and moves it into the library. It returns the
// incoming directory on failure so it can be cleaned up.
func (s *DownloadService) transfer(ctx context.Context, edition *domain.Edition, attempt *domain.DownloadAttempt, listener domain.ProgressListener) (string, error) {
	incoming := filepath.Join(s.config.IncomingDir(), attempt.ID)
	if err := os.MkdirAll(incoming, 0755); err != nil {
		return "", fmt.Errorf("failed to create incoming directory: %w", err)
	}

	file, err := os.Create(filepath.Join(incoming, payloadFile))
	if err != nil {
		return incoming, fmt.Errorf("failed to create payload file: %w", err)
	}

	chunks := s.config.ChunkCount
	if chunks < 1 {
		chunks = 1
	}
	chunk := make([]byte, s.config.PayloadSize/int64(chunks))

	for i := 1; i <= chunks; i++ {
		select {
		case <-ctx.Done():
			file.Close()
			return incoming, ctx.Err()
		case <-time.After(s.config.ChunkDelay):
		}

		n, err := file.Write(chunk)
		attempt.BytesWritten += int64(n)
		if err != nil {
			file.Close()
			return incoming, fmt.Errorf("failed to write payload: %w", err)
		}
		listener.Progress(float64(i)/float64(chunks), false)
	}

	if err := file.Close(); err != nil {
		return incoming, fmt.Errorf("failed to close payload file: %w", err)
	}

	// preparing for presentation
	listener.Progress(1, true)
	select {
	case <-ctx.Done():
		return incoming, ctx.Err()
	case <-time.After(s.config.PrepareDelay):
	}

	manifest := &Manifest{
		EditionID:    edition.ID,
		Title:        edition.Title,
		Files:        []string{payloadFile},
		Bytes:        attempt.BytesWritten,
		DownloadedAt: time.Now(),
	}
	if err := writeManifest(incoming, manifest); err != nil {
		return incoming, fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := os.MkdirAll(s.library.Dir(), 0755); err != nil {
		return incoming, fmt.Errorf("failed to create editions directory: %w", err)
	}
	final := filepath.Join(s.library.Dir(), string(edition.ID))
	if err := os.RemoveAll(final); err != nil {
		return incoming, fmt.Errorf("failed to clear previous content: %w", err)
	}

	// last chance to observe a cancel before the edition becomes visible
	if err := ctx.Err(); err != nil {
		return incoming, err
	}
	if err := os.Rename(incoming, final); err != nil {
		return incoming, fmt.Errorf("failed to move edition into place: %w", err)
	}
	if err := s.library.Add(edition.ID, final); err != nil {
		os.RemoveAll(final)
		return "", err
	}

	return final, nil
}

func (s *DownloadService) cancelled(attempt *domain.DownloadAttempt, incoming string) {
	removeIncoming(incoming)
	attempt.MarkCancelled()
	s.updateAttempt(attempt)

	s.logger.Info("Download cancelled",
		zap.String("edition_id", string(attempt.EditionID)),
		zap.String("attempt_id", attempt.ID))
	recordEvent(s.analytics, "edition_download_cancelled", attempt.EditionID, "attempt_id", attempt.ID)
}

func (s *DownloadService) failed(attempt *domain.DownloadAttempt, incoming string, err error, listener domain.ProgressListener) {
	removeIncoming(incoming)
	attempt.MarkFailed(err)
	s.updateAttempt(attempt)

	s.logger.Error("Download failed",
		zap.String("edition_id", string(attempt.EditionID)),
		zap.String("attempt_id", attempt.ID),
		zap.Error(err))
	recordEvent(s.analytics, "edition_download_failed", attempt.EditionID,
		"attempt_id", attempt.ID,
		"error", err.Error())

	listener.Failed(err)
}

func (s *DownloadService) updateAttempt(attempt *domain.DownloadAttempt) {
	if err := s.attempts.UpdateAttempt(attempt); err != nil {
		s.logger.Error("Failed to update download attempt",
			zap.String("attempt_id", attempt.ID),
			zap.Error(err))
	}
}

func removeIncoming(path string) {
	if path != "" {
		os.RemoveAll(path)
	}
}
