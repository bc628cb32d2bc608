package app

import (
	"context"
	"errors"

	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

// ActivateResult describes what a tap did
type ActivateResult struct {
	Signal  Signal             `json:"signal"`
	Outcome domain.OpenOutcome `json:"outcome,omitempty"`
}

// PresentationGate decides between opening an edition and entering the
// download flow. Like the coordinator it runs on the event loop only.
type PresentationGate struct {
	coordinator *DownloadCoordinator
	downloaded  domain.DownloadedEditions
	presenter   domain.ContentPresenter
	notifier    domain.Notifier
	logger      *zap.Logger
}

// NewPresentationGate creates a new presentation gate
func NewPresentationGate(
	coordinator *DownloadCoordinator,
	downloaded domain.DownloadedEditions,
	presenter domain.ContentPresenter,
	notifier domain.Notifier,
	logger *zap.Logger,
) *PresentationGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PresentationGate{
		coordinator: coordinator,
		downloaded:  downloaded,
		presenter:   presenter,
		notifier:    notifier,
		logger:      logger,
	}
}

// Activate opens a downloaded edition, or toggles its download otherwise
func (g *PresentationGate) Activate(ctx context.Context, id domain.EditionID) (ActivateResult, error) {
	if g.downloaded.IsDownloaded(id) {
		return ActivateResult{Signal: SignalShouldPresent, Outcome: g.Open(ctx, id)}, nil
	}

	signal, err := g.coordinator.Toggle(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAuthorizationDenied) {
			g.notifier.Notify(domain.NoticeError, AuthorizationDeniedMessage(err))
		} else {
			g.notifier.Notify(domain.NoticeError, DownloadFailedMessage(err))
		}
		return ActivateResult{Signal: SignalNone}, err
	}

	// Downloaded between the check above and the toggle
	if signal == SignalShouldPresent {
		return ActivateResult{Signal: signal, Outcome: g.Open(ctx, id)}, nil
	}

	return ActivateResult{Signal: signal}, nil
}

// OnDownloadCoordinatorDrained opens the edition whose completion drained
// the download queue
func (g *PresentationGate) OnDownloadCoordinatorDrained(ctx context.Context, id domain.EditionID) domain.OpenOutcome {
	return g.Open(ctx, id)
}

// Open invokes the content presenter and reports failures as notices
func (g *PresentationGate) Open(ctx context.Context, id domain.EditionID) domain.OpenOutcome {
	err := g.presenter.Open(ctx, id)
	outcome := domain.ClassifyOpenError(err)
	if outcome == domain.OutcomeOpened {
		g.logger.Info("edition_opened", zap.String("edition_id", string(id)))
		return outcome
	}

	g.logger.Warn("edition_open_failed",
		zap.String("edition_id", string(id)),
		zap.String("outcome", string(outcome)),
		zap.Error(err))

	g.notifier.Notify(domain.NoticeError, OpenFailedMessage(outcome, err))
	return outcome
}
