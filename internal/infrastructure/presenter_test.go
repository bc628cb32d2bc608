package infrastructure

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

func newTestPresenter(t *testing.T) (*Presenter, *Library, *recordingSink, string) {
	t.Helper()
	repo, cleanup := setupTestRepo(t)
	t.Cleanup(cleanup)
	seedCatalog(t, repo, "a", "b")

	dir := t.TempDir()
	sink := &recordingSink{}
	library := NewLibrary(repo, dir, sink, zap.NewNop())
	presenter := NewPresenter(repo, library, newDevTokenProvider(t, "dev-all-access"), sink, zap.NewNop())
	return presenter, library, sink, dir
}

func openOutcome(t *testing.T, err error) domain.OpenOutcome {
	t.Helper()
	var openErr *domain.OpenError
	require.True(t, errors.As(err, &openErr), "expected *domain.OpenError, got %v", err)
	assert.Equal(t, openErr.Outcome, domain.ClassifyOpenError(err))
	return openErr.Outcome
}

func TestPresenter_OpensDownloadedEdition(t *testing.T) {
	presenter, library, sink, dir := newTestPresenter(t)
	path := writeEditionContent(t, filepath.Join(dir, "a"), map[string]int{payloadFile: 10})
	require.NoError(t, writeManifest(path, &Manifest{EditionID: "a", Title: "Edition a", Files: []string{payloadFile}, DownloadedAt: time.Now()}))
	require.NoError(t, library.Add("a", path))

	require.NoError(t, presenter.Open(context.Background(), "a"))

	last := presenter.Last()
	require.NotNil(t, last)
	assert.Equal(t, domain.EditionID("a"), last.EditionID)
	assert.Equal(t, "Edition a", last.Title)
	assert.Equal(t, []string{"edition_opened"}, sink.names())
}

func TestPresenter_UnknownEdition(t *testing.T) {
	presenter, _, _, _ := newTestPresenter(t)

	err := presenter.Open(context.Background(), "missing")

	assert.Equal(t, domain.OutcomeNotFound, openOutcome(t, err))
	assert.Nil(t, presenter.Last())
}

func TestPresenter_NotDownloaded(t *testing.T) {
	presenter, _, _, _ := newTestPresenter(t)

	err := presenter.Open(context.Background(), "b")

	assert.Equal(t, domain.OutcomeNotDownloaded, openOutcome(t, err))
	assert.ErrorIs(t, err, domain.ErrNotDownloaded)
}

func TestPresenter_IncompleteContent(t *testing.T) {
	presenter, library, _, dir := newTestPresenter(t)
	path := writeEditionContent(t, filepath.Join(dir, "a"), map[string]int{payloadFile: 10})
	require.NoError(t, library.Add("a", path))

	err := presenter.Open(context.Background(), "a")

	assert.Equal(t, domain.OutcomeInternalError, openOutcome(t, err))
}
