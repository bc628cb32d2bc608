package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

const manifestFile = "manifest.json"

// Manifest describes the content of a downloaded edition
type Manifest struct {
	EditionID    domain.EditionID `json:"edition_id"`
	Title        string           `json:"title"`
	Files        []string         `json:"files"`
	Bytes        int64            `json:"bytes"`
	DownloadedAt time.Time        `json:"downloaded_at"`
}

// Presenter opens downloaded editions by loading their manifest
type Presenter struct {
	repo      domain.EditionRepository
	library   *Library
	tokens    domain.TokenProvider
	analytics domain.AnalyticsSink
	logger    *zap.Logger

	mu   sync.RWMutex
	last *domain.Presentation
}

// NewPresenter creates a new presenter
func NewPresenter(repo domain.EditionRepository, library *Library, tokens domain.TokenProvider, analytics domain.AnalyticsSink, logger *zap.Logger) *Presenter {
	return &Presenter{
		repo:      repo,
		library:   library,
		tokens:    tokens,
		analytics: analytics,
		logger:    logger,
	}
}

// Open presents a downloaded edition
func (p *Presenter) Open(ctx context.Context, id domain.EditionID) error {
	edition, err := p.repo.FindEdition(id)
	if err != nil {
		return &domain.OpenError{EditionID: id, Outcome: domain.ClassifyOpenError(err), Err: err}
	}

	path, ok := p.library.Path(id)
	if !ok {
		return &domain.OpenError{EditionID: id, Outcome: domain.OutcomeNotDownloaded, Err: domain.ErrNotDownloaded}
	}

	if _, err := p.tokens.Token(ctx, domain.ReasonNoToken, domain.TriggerOpen); err != nil {
		return &domain.OpenError{EditionID: id, Outcome: domain.OutcomeInternalError, Err: err}
	}

	manifest, err := readManifest(path)
	if err != nil {
		return &domain.OpenError{EditionID: id, Outcome: domain.OutcomeInternalError, Err: err}
	}

	presentation := &domain.Presentation{
		EditionID: id,
		Title:     edition.Title,
		Path:      path,
		OpenedAt:  time.Now(),
	}
	p.mu.Lock()
	p.last = presentation
	p.mu.Unlock()

	p.logger.Info("Edition presented",
		zap.String("edition_id", string(id)),
		zap.String("title", edition.Title),
		zap.Int("files", len(manifest.Files)))

	recordEvent(p.analytics, "edition_opened", id)
	return nil
}

// Last returns the most recently opened edition, or nil
func (p *Presenter) Last() *domain.Presentation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return nil
	}
	last := *p.last
	return &last
}

func readManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("edition content is incomplete: %w", err)
		}
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("edition manifest is corrupt: %w", err)
	}
	return &manifest, nil
}

func writeManifest(dir string, manifest *Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifestFile), data, 0644)
}
