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

func TestEditions_InitializeAndDownload(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	config := domain.DefaultConfig()
	base := t.TempDir()
	config.Editions.FeedPath = filepath.Join(base, "feed.json")
	config.Editions.PageSize = 4
	config.Download = fastDownloads()
	config.Download.BaseDir = base

	leftover := filepath.Join(config.Download.IncomingDir(), "stale-attempt")
	require.NoError(t, os.MkdirAll(leftover, 0755))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sdk := NewEditions(ctx, config, repo, newDevTokenProvider(t, config.Token.Entitlement), nil, zap.NewNop())
	assert.False(t, sdk.Initialized())

	require.NoError(t, sdk.Initialize(ctx))
	assert.True(t, sdk.Initialized())
	assert.NoDirExists(t, leftover)
	assert.DirExists(t, config.Download.EditionsDir())

	require.NoError(t, sdk.Catalog.UpdateFeed(ctx))
	editions, err := sdk.Catalog.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, editions, 4)

	listener := newRecordingListener("first", nil)
	_, err = sdk.Downloads.Start(ctx, editions[0].ID, listener)
	require.NoError(t, err)
	listener.waitCompleted(t)
	sdk.Close()

	assert.True(t, sdk.Library.IsDownloaded(editions[0].ID))
	require.NoError(t, sdk.Presenter.Open(ctx, editions[0].ID))

	stats, err := sdk.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Completed)

	attempts, err := sdk.Attempts(editions[0].ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.WithinDuration(t, time.Now(), attempts[0].UpdatedAt, time.Minute)
}
