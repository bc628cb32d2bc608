package bootstrap

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/yourusername/editions-go/internal/app"
	"github.com/yourusername/editions-go/internal/domain"
	"github.com/yourusername/editions-go/internal/infrastructure"
	"github.com/yourusername/editions-go/pkg/logger"
	"go.uber.org/zap"
)

const (
	analyticsBuffer = 256
	devTokenTTL     = 24 * time.Hour
)

// Runtime is a fully wired edition list: SDK, event loop and session
type Runtime struct {
	Config     *domain.Config
	Logger     *zap.Logger
	LogAdapter *logger.LoggerAdapter
	Repo       *infrastructure.SQLiteRepository
	Analytics  *infrastructure.AnalyticsLogger
	Notices    *infrastructure.NoticeCenter
	SDK        *infrastructure.Editions
	Covers     *infrastructure.CoverCache
	Loop       *app.EventLoop
	Session    *app.Session

	multiLog *logger.MultiLogger
	cancel   context.CancelFunc
}

// New wires every component and initializes the SDK. The catalog is not
// loaded; call Session.Load once the caller is ready to render.
func New(ctx context.Context, config *domain.Config) (*Runtime, error) {
	base, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
		Service:    "editions",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize category logs: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &Runtime{
		Config:     config,
		Logger:     base,
		LogAdapter: logger.NewLoggerAdapter(base, multiLog),
		multiLog:   multiLog,
		cancel:     cancel,
	}

	if err := r.build(ctx); err != nil {
		r.Close(context.Background())
		return nil, err
	}
	return r, nil
}

func (r *Runtime) build(ctx context.Context) error {
	config := r.Config
	general := r.LogAdapter.General()

	if err := os.MkdirAll(config.Download.BaseDir, 0755); err != nil {
		return fmt.Errorf("failed to create base directory: %w", err)
	}

	repo, err := infrastructure.NewSQLiteRepository(config.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	r.Repo = repo

	tokens, err := tokenProvider(config, general)
	if err != nil {
		return err
	}

	r.Analytics = infrastructure.NewAnalyticsLogger(r.LogAdapter.Analytics(), analyticsBuffer)
	r.Notices = infrastructure.NewNoticeCenter(&config.Notification, general)

	r.SDK = infrastructure.NewEditions(ctx, config, repo, tokens, r.Analytics, r.LogAdapter.Download())
	if err := r.SDK.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize editions sdk: %w", err)
	}

	r.Covers = infrastructure.NewCoverCache(
		config.Cover.CacheDir,
		&http.Client{Timeout: config.Cover.FetchTimeout},
		general,
	)

	r.Loop = app.NewEventLoop(general)
	if err := r.Loop.Start(ctx); err != nil {
		return err
	}

	r.Session = app.NewSession(ctx, app.SessionOptions{
		Loop:             r.Loop,
		Catalog:          r.SDK.Catalog,
		Downloads:        r.SDK.Downloads,
		Downloaded:       r.SDK.Library,
		DiskUsage:        r.SDK.Library,
		Presenter:        r.SDK.Presenter,
		Covers:           r.Covers,
		Notifier:         r.Notices,
		Layout:           app.Layout{Width: config.Editions.GridWidth},
		CoverConcurrency: config.Cover.FetchConcurrency,
		Logger:           r.LogAdapter.Download(),
	})
	return nil
}

// tokenProvider returns the configured token, or a locally signed one
// carrying the configured entitlement
func tokenProvider(config *domain.Config, log *zap.Logger) (*infrastructure.StaticTokenProvider, error) {
	token := config.Token.JWT
	if token == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		var err error
		token, err = infrastructure.NewDevToken(config.Editions.BundleID, []string{config.Token.Entitlement}, devTokenTTL, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create development token: %w", err)
		}
		log.Info("Using development token", zap.String("entitlement", config.Token.Entitlement))
	}
	return infrastructure.NewStaticTokenProvider(token, config.Token.Entitlement, log), nil
}

// Close cancels active downloads and releases every resource
func (r *Runtime) Close(ctx context.Context) {
	if r.Session != nil {
		if err := r.Session.Shutdown(ctx); err != nil {
			r.Logger.Warn("Failed to cancel downloads", zap.Error(err))
		}
	}
	r.cancel()
	if r.SDK != nil {
		r.SDK.Close()
	}
	if r.Loop != nil && r.Loop.IsRunning() {
		_ = r.Loop.Stop()
	}
	if r.Analytics != nil {
		r.Analytics.Close()
	}
	if r.Repo != nil {
		if err := r.Repo.Close(); err != nil {
			r.Logger.Warn("Failed to close repository", zap.Error(err))
		}
	}
	_ = r.LogAdapter.Sync()
	_ = r.multiLog.Close()
}
