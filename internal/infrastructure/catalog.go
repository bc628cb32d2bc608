package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

// Feed is the document stored at the feed path
type Feed struct {
	Editions []domain.FeedEntry `json:"editions"`
}

// FeedCatalog loads editions from a JSON feed into the repository and pages
// through them
type FeedCatalog struct {
	feedPath string
	query    domain.EditionQuery
	repo     domain.EditionRepository
	tokens   domain.TokenProvider
	logger   *zap.Logger
}

// NewFeedCatalog creates a catalog over the feed at feedPath
func NewFeedCatalog(feedPath string, query domain.EditionQuery, repo domain.EditionRepository, tokens domain.TokenProvider, logger *zap.Logger) *FeedCatalog {
	return &FeedCatalog{
		feedPath: feedPath,
		query:    query,
		repo:     repo,
		tokens:   tokens,
		logger:   logger,
	}
}

// UpdateFeed reads the feed and upserts its editions. A missing feed is
// replaced by a generated demo feed.
func (c *FeedCatalog) UpdateFeed(ctx context.Context) error {
	if c.tokens != nil && c.tokens.HasToken() {
		if _, err := c.tokens.Token(ctx, domain.ReasonNoToken, domain.TriggerFeed); err != nil {
			return fmt.Errorf("feed authorization: %w", err)
		}
	}

	feed, err := c.readFeed()
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Info("Feed not found, generating demo feed", zap.String("path", c.feedPath))
		feed, err = WriteDemoFeed(c.feedPath, 12, time.Now())
	}
	if err != nil {
		return err
	}

	editions := make([]domain.Edition, 0, len(feed.Editions))
	for _, entry := range feed.Editions {
		if entry.ID == "" {
			c.logger.Warn("Skipping feed entry without id", zap.String("title", entry.Title))
			continue
		}
		editions = append(editions, entry.ToEdition())
	}

	if err := c.repo.UpsertEditions(editions); err != nil {
		return fmt.Errorf("failed to store feed: %w", err)
	}

	c.logger.Info("Feed updated", zap.Int("editions", len(editions)))
	return nil
}

func (c *FeedCatalog) readFeed() (*Feed, error) {
	data, err := os.ReadFile(c.feedPath)
	if err != nil {
		return nil, err
	}
	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", c.feedPath, err)
	}
	return &feed, nil
}

// Refresh returns the first page of the configured query
func (c *FeedCatalog) Refresh(ctx context.Context) ([]domain.Edition, error) {
	page, err := c.Editions(c.query).Next(ctx)
	if err != nil {
		return nil, err
	}
	return page.Editions, nil
}

// Editions opens a paginator over the catalog
func (c *FeedCatalog) Editions(query domain.EditionQuery) domain.EditionPaginator {
	if query.PageSize < 1 {
		query.PageSize = c.query.PageSize
	}
	return &editionPaginator{repo: c.repo, query: query}
}

// editionPaginator walks a listing with offset paging
type editionPaginator struct {
	repo   domain.EditionRepository
	query  domain.EditionQuery
	offset int
	done   bool
}

// Next returns the next page. After the last page it returns empty pages.
func (p *editionPaginator) Next(ctx context.Context) (*domain.EditionPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.done {
		return &domain.EditionPage{}, nil
	}

	editions, err := p.repo.ListEditions(p.query, p.offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list editions: %w", err)
	}
	total, err := p.repo.CountEditions(p.query)
	if err != nil {
		return nil, fmt.Errorf("failed to count editions: %w", err)
	}

	p.offset += len(editions)
	hasNext := len(editions) > 0 && int64(p.offset) < total
	p.done = !hasNext

	return &domain.EditionPage{Editions: editions, HasNext: hasNext}, nil
}

// WriteDemoFeed generates count daily editions ending at now, with cover
// images stored next to the feed
func WriteDemoFeed(feedPath string, count int, now time.Time) (*Feed, error) {
	coversDir := filepath.Join(filepath.Dir(feedPath), "demo-covers")
	if err := os.MkdirAll(coversDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create demo covers directory: %w", err)
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	feed := &Feed{}
	for i := 0; i < count; i++ {
		published := day.AddDate(0, 0, -i)
		id := fmt.Sprintf("demo-%s", published.Format("20060102"))

		coverPath := filepath.Join(coversDir, id+".png")
		if err := writeDemoCover(coverPath, i); err != nil {
			return nil, err
		}

		tag := "daily"
		if published.Weekday() == time.Sunday {
			tag = "weekend"
		}
		feed.Editions = append(feed.Editions, domain.FeedEntry{
			ID:          id,
			Title:       fmt.Sprintf("The Daily Edition, %s", published.Format("Mon 2 Jan")),
			CoverURL:    "file://" + coverPath,
			ProductTag:  tag,
			PublishedAt: published,
		})
	}

	data, err := json.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(feedPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write demo feed: %w", err)
	}
	return feed, nil
}

func writeDemoCover(path string, seed int) error {
	const width, height = 300, 540
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := color.RGBA{R: uint8(40 + seed*17%200), G: uint8(80 + seed*29%160), B: uint8(120 + seed*43%130), A: 255}
	masthead := color.RGBA{R: 250, G: 250, B: 245, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if y < height/6 {
				img.Set(x, y, masthead)
			} else {
				img.Set(x, y, base)
			}
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create demo cover: %w", err)
	}
	defer file.Close()
	return png.Encode(file, img)
}
