package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

type downloadFixture struct {
	repo      *SQLiteRepository
	library   *Library
	service   *DownloadService
	analytics *recordingSink
	config    *domain.DownloadConfig
}

func newDownloadFixture(t *testing.T, config domain.DownloadConfig, tokens domain.TokenProvider) *downloadFixture {
	t.Helper()
	repo, cleanup := setupTestRepo(t)
	t.Cleanup(cleanup)
	seedCatalog(t, repo, "a", "b")

	config.BaseDir = t.TempDir()
	analytics := &recordingSink{}
	library := NewLibrary(repo, config.EditionsDir(), analytics, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	service := NewDownloadService(ctx, &config, repo, repo, library, tokens, analytics, zap.NewNop())
	t.Cleanup(func() {
		cancel()
		service.Wait()
	})

	return &downloadFixture{
		repo:      repo,
		library:   library,
		service:   service,
		analytics: analytics,
		config:    &config,
	}
}

func fastDownloads() domain.DownloadConfig {
	return domain.DownloadConfig{
		ChunkCount:      4,
		ChunkDelay:      time.Millisecond,
		PrepareDelay:    time.Millisecond,
		PayloadSize:     4096,
		ConcurrentLimit: 2,
	}
}

func TestDownloadService_CompletesIntoLibrary(t *testing.T) {
	f := newDownloadFixture(t, fastDownloads(), newDevTokenProvider(t, "dev-all-access"))
	listener := newRecordingListener("a", nil)

	handle, err := f.service.Start(context.Background(), "a", listener)
	require.NoError(t, err)
	require.NotNil(t, handle)
	listener.waitCompleted(t)

	assert.True(t, f.library.IsDownloaded("a"))
	path, ok := f.library.Path("a")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(f.config.EditionsDir(), "a"), path)

	info, err := os.Stat(filepath.Join(path, payloadFile))
	require.NoError(t, err)
	assert.Equal(t, int64(4096), info.Size())

	manifest, err := readManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "Edition a", manifest.Title)

	progress, preparing := listener.snapshot()
	assert.Equal(t, []float64{-1, 0.25, 0.5, 0.75, 1, 1}, progress)
	assert.Equal(t, []bool{false, false, false, false, false, true}, preparing)

	f.service.Wait()
	attempts, err := f.repo.FindAttemptsByEdition("a")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, handle.ID(), attempts[0].ID)
	assert.Equal(t, domain.StatusCompleted, attempts[0].Status)
	assert.Equal(t, int64(4096), attempts[0].BytesWritten)

	entries, err := os.ReadDir(f.config.IncomingDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "incoming directory is emptied by the move")

	assert.Equal(t, []string{"edition_download_started", "edition_download_completed"}, f.analytics.names())
}

func TestDownloadService_CancelStopsAttempt(t *testing.T) {
	config := fastDownloads()
	config.ChunkDelay = time.Second
	f := newDownloadFixture(t, config, newDevTokenProvider(t, "dev-all-access"))
	listener := newRecordingListener("a", nil)

	handle, err := f.service.Start(context.Background(), "a", listener)
	require.NoError(t, err)
	handle.Cancel()
	f.service.Wait()

	assert.False(t, f.library.IsDownloaded("a"))
	select {
	case <-listener.completed:
		t.Fatal("cancelled download completed")
	default:
	}

	attempts, err := f.repo.FindAttemptsByEdition("a")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.StatusCancelled, attempts[0].Status)
	assert.Contains(t, f.analytics.names(), "edition_download_cancelled")

	entries, _ := os.ReadDir(f.config.IncomingDir())
	assert.Empty(t, entries, "partial content is removed")
}

func TestDownloadService_AuthorizationDenied(t *testing.T) {
	f := newDownloadFixture(t, fastDownloads(), NewStaticTokenProvider("", "dev-all-access", zap.NewNop()))

	handle, err := f.service.Start(context.Background(), "a", newRecordingListener("a", nil))

	assert.Nil(t, handle)
	assert.ErrorIs(t, err, domain.ErrAuthorizationDenied)
	attempts, err := f.repo.FindAttemptsByEdition("a")
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestDownloadService_UnknownEdition(t *testing.T) {
	f := newDownloadFixture(t, fastDownloads(), newDevTokenProvider(t, "dev-all-access"))

	_, err := f.service.Start(context.Background(), "missing", newRecordingListener("missing", nil))

	assert.ErrorIs(t, err, domain.ErrEditionNotFound)
}

func TestDownloadService_ConcurrencyLimit(t *testing.T) {
	config := fastDownloads()
	config.ConcurrentLimit = 1
	config.ChunkDelay = 5 * time.Millisecond
	f := newDownloadFixture(t, config, newDevTokenProvider(t, "dev-all-access"))

	log := &eventLog{}
	first := newRecordingListener("a", log)
	second := newRecordingListener("b", log)
	_, err := f.service.Start(context.Background(), "a", first)
	require.NoError(t, err)
	_, err = f.service.Start(context.Background(), "b", second)
	require.NoError(t, err)

	first.waitCompleted(t)
	second.waitCompleted(t)

	// whichever acquired the slot first finished before the other started
	aStart, bStart := log.index("a:will_start"), log.index("b:will_start")
	if aStart < bStart {
		assert.Less(t, log.index("a:completed"), bStart)
	} else {
		assert.Less(t, log.index("b:completed"), aStart)
	}
}

func TestDownloadService_StopsWithContext(t *testing.T) {
	config := fastDownloads()
	config.ChunkDelay = time.Second
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	seedCatalog(t, repo, "a")
	config.BaseDir = t.TempDir()
	library := NewLibrary(repo, config.EditionsDir(), nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	service := NewDownloadService(ctx, &config, repo, repo, library, newDevTokenProvider(t, "x"), nil, zap.NewNop())

	_, err := service.Start(context.Background(), "a", newRecordingListener("a", nil))
	require.NoError(t, err)
	cancel()
	service.Wait()

	assert.False(t, library.IsDownloaded("a"))
}
