package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/editions-go/internal/domain"
)

type gateFixture struct {
	*coordinatorFixture
	gate      *PresentationGate
	presenter *fakePresenter
	notifier  *recordingNotifier
}

func newGateFixture(downloaded ...domain.EditionID) *gateFixture {
	cf := newCoordinatorFixture(downloaded...)
	f := &gateFixture{
		coordinatorFixture: cf,
		presenter:          newFakePresenter(),
		notifier:           &recordingNotifier{},
	}
	f.gate = NewPresentationGate(cf.coordinator, cf.downloaded, f.presenter, f.notifier, nil)
	return f
}

func TestActivate_DownloadedEditionOpens(t *testing.T) {
	f := newGateFixture("a")

	result, err := f.gate.Activate(context.Background(), "a")

	require.NoError(t, err)
	assert.Equal(t, SignalShouldPresent, result.Signal)
	assert.Equal(t, domain.OutcomeOpened, result.Outcome)
	assert.Equal(t, []domain.EditionID{"a"}, f.presenter.openedEditions())
	assert.Empty(t, f.service.handles)
	assert.Empty(t, f.notifier.messages())
}

func TestActivate_NotDownloadedTogglesDownload(t *testing.T) {
	f := newGateFixture()

	result, err := f.gate.Activate(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, SignalDownloading, result.Signal)
	assert.True(t, f.coordinator.IsActive("a"))

	result, err = f.gate.Activate(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, SignalCancelled, result.Signal)
	assert.False(t, f.coordinator.IsActive("a"))
	assert.Empty(t, f.presenter.openedEditions())
}

func TestActivate_OpenFailureCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		outcome  domain.OpenOutcome
		expected string
	}{
		{
			name:     "not downloaded",
			err:      domain.ErrNotDownloaded,
			outcome:  domain.OutcomeNotDownloaded,
			expected: "Error opening edition: Edition is not downloaded.",
		},
		{
			name:     "not found",
			err:      fmt.Errorf("lookup: %w", domain.ErrEditionNotFound),
			outcome:  domain.OutcomeNotFound,
			expected: "Error opening edition: Edition not found.",
		},
		{
			name:     "internal",
			err:      &domain.OpenError{EditionID: "a", Outcome: domain.OutcomeInternalError, Err: errors.New("manifest corrupt")},
			outcome:  domain.OutcomeInternalError,
			expected: "Error opening edition: manifest corrupt.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGateFixture("a")
			f.presenter.errs["a"] = tt.err

			result, err := f.gate.Activate(context.Background(), "a")

			require.NoError(t, err)
			assert.Equal(t, tt.outcome, result.Outcome)
			assert.Equal(t, []string{tt.expected}, f.notifier.messages())
		})
	}
}

func TestActivate_AuthorizationDeniedSurfacesNotice(t *testing.T) {
	f := newGateFixture()
	f.service.startErr = &domain.AuthorizationError{Reason: domain.ReasonNoEntitlements}

	result, err := f.gate.Activate(context.Background(), "a")

	require.Error(t, err)
	assert.Equal(t, SignalNone, result.Signal)
	assert.Equal(t, []string{"You are not entitled to this edition."}, f.notifier.messages())
	assert.False(t, f.coordinator.IsActive("a"))
}

func TestActivate_StartFailureSurfacesNotice(t *testing.T) {
	f := newGateFixture()
	f.service.startErr = errors.New("queue full")

	_, err := f.gate.Activate(context.Background(), "a")

	require.Error(t, err)
	assert.Equal(t, []string{"Error downloading edition: queue full"}, f.notifier.messages())
}

func TestOnDownloadCoordinatorDrained_Opens(t *testing.T) {
	f := newGateFixture("a")

	outcome := f.gate.OnDownloadCoordinatorDrained(context.Background(), "a")

	assert.Equal(t, domain.OutcomeOpened, outcome)
	assert.Equal(t, []domain.EditionID{"a"}, f.presenter.openedEditions())
}

func TestDownloadFailedMessage(t *testing.T) {
	assert.Equal(t, "Error downloading edition: disk full",
		DownloadFailedMessage(fmt.Errorf("write chunk: %w", errors.New("disk full"))))
	assert.Equal(t, "Your session has expired. Please sign in again.",
		DownloadFailedMessage(&domain.AuthorizationError{Reason: domain.ReasonNoAccess}))
	assert.Equal(t, "Error loading editions: feed missing",
		CatalogRefreshFailedMessage(fmt.Errorf("update feed: %w", errors.New("feed missing"))))
}
