package infrastructure

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

const maxCoverBytes = 20 << 20

// CoverCache fetches cover images, scales them into a bounding box and keeps
// the result as JPEG on disk. Concurrent requests for the same cover share
// one fetch.
type CoverCache struct {
	dir    string
	client *http.Client
	group  singleflight.Group
	logger *zap.Logger
}

// NewCoverCache creates a cover cache in dir
func NewCoverCache(dir string, client *http.Client, logger *zap.Logger) *CoverCache {
	if client == nil {
		client = http.DefaultClient
	}
	return &CoverCache{
		dir:    dir,
		client: client,
		logger: logger,
	}
}

// Dir returns the cache directory
func (c *CoverCache) Dir() string {
	return c.dir
}

// Cover returns the edition's cover scaled to fit box
func (c *CoverCache) Cover(ctx context.Context, edition domain.Edition, box domain.Size) (*domain.Cover, error) {
	if edition.CoverURL == "" {
		return nil, fmt.Errorf("edition %s has no cover", edition.ID)
	}
	if box.Width <= 0 || box.Height <= 0 {
		return nil, fmt.Errorf("invalid cover bounding box %dx%d", box.Width, box.Height)
	}

	key := fmt.Sprintf("%s_%dx%d", edition.ID, box.Width, box.Height)
	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		path := filepath.Join(c.dir, key+".jpg")
		if cover, err := cachedCover(path); err == nil {
			return cover, nil
		}
		return c.fetch(ctx, edition, box, path)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Cover), nil
}

func cachedCover(path string) (*domain.Cover, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}
	return &domain.Cover{Path: path, Width: config.Width, Height: config.Height}, nil
}

func (c *CoverCache) fetch(ctx context.Context, edition domain.Edition, box domain.Size, path string) (*domain.Cover, error) {
	body, err := c.open(ctx, edition.CoverURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	src, format, err := image.Decode(io.LimitReader(body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover of %s: %w", edition.ID, err)
	}

	dst := image.NewRGBA(fitRect(src.Bounds(), box))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cover cache: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, "cover-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create cover file: %w", err)
	}
	if err := jpeg.Encode(tmp, dst, &jpeg.Options{Quality: 85}); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to encode cover: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to store cover: %w", err)
	}

	c.logger.Debug("Cover cached",
		zap.String("edition_id", string(edition.ID)),
		zap.String("format", format),
		zap.Int("width", dst.Bounds().Dx()),
		zap.Int("height", dst.Bounds().Dy()))

	return &domain.Cover{Path: path, Width: dst.Bounds().Dx(), Height: dst.Bounds().Dy()}, nil
}

func (c *CoverCache) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid cover url %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "file", "":
		return os.Open(u.Path)
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch cover: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch cover: %s", resp.Status)
		}
		return resp.Body, nil
	default:
		return nil, fmt.Errorf("unsupported cover url scheme %q", u.Scheme)
	}
}

// fitRect returns the largest rectangle with src's aspect ratio that fits box
func fitRect(src image.Rectangle, box domain.Size) image.Rectangle {
	w, h := float64(src.Dx()), float64(src.Dy())
	if w == 0 || h == 0 {
		return image.Rect(0, 0, box.Width, box.Height)
	}
	scale := math.Min(float64(box.Width)/w, float64(box.Height)/h)
	width := int(math.Max(1, math.Round(w*scale)))
	height := int(math.Max(1, math.Round(h*scale)))
	return image.Rect(0, 0, width, height)
}
