package domain

import (
	"path/filepath"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Editions     EditionsConfig     `mapstructure:"editions"`
	Download     DownloadConfig     `mapstructure:"download"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Token        TokenConfig        `mapstructure:"token"`
	Cover        CoverConfig        `mapstructure:"cover"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// EditionsConfig contains SDK and catalog configuration
type EditionsConfig struct {
	BundleID    string   `mapstructure:"bundle_id"`
	FeedPath    string   `mapstructure:"feed_path"`
	PageSize    int      `mapstructure:"page_size"`
	ProductTags []string `mapstructure:"product_tags"`
	GridWidth   int      `mapstructure:"grid_width"` // logical width used for cover bounding boxes
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	BaseDir         string        `mapstructure:"base_dir"`
	ChunkCount      int           `mapstructure:"chunk_count"`
	ChunkDelay      time.Duration `mapstructure:"chunk_delay"`
	PrepareDelay    time.Duration `mapstructure:"prepare_delay"`
	PayloadSize     int64         `mapstructure:"payload_size"`
	ConcurrentLimit int           `mapstructure:"concurrent_limit"`
}

// IncomingDir returns the directory for partially downloaded editions
func (c DownloadConfig) IncomingDir() string {
	return filepath.Join(c.BaseDir, "incoming")
}

// EditionsDir returns the directory for downloaded editions
func (c DownloadConfig) EditionsDir() string {
	return filepath.Join(c.BaseDir, "editions")
}

// LogsDir returns the directory for categorized log files
func (c DownloadConfig) LogsDir() string {
	return filepath.Join(c.BaseDir, "logs")
}

// StorageConfig contains persistence configuration
type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// TokenConfig contains the credentials handed to the SDK token provider
type TokenConfig struct {
	JWT         string `mapstructure:"jwt"`
	Entitlement string `mapstructure:"entitlement"`
}

// CoverConfig contains cover image cache configuration
type CoverConfig struct {
	CacheDir         string        `mapstructure:"cache_dir"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	FetchConcurrency int           `mapstructure:"fetch_concurrency"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Method   string        `mapstructure:"method"` // osascript, notify-send, none
	Duration time.Duration `mapstructure:"duration"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Editions: EditionsConfig{
			BundleID:  "fi.richie.editionsTestApp",
			FeedPath:  "$HOME/.editions/feed.json",
			PageSize:  50,
			GridWidth: 1024,
		},
		Download: DownloadConfig{
			BaseDir:         "$HOME/.editions/data",
			ChunkCount:      20,
			ChunkDelay:      150 * time.Millisecond,
			PrepareDelay:    500 * time.Millisecond,
			PayloadSize:     8 << 20,
			ConcurrentLimit: 2,
		},
		Storage: StorageConfig{
			DatabasePath: "$HOME/.editions/data/editions.db",
		},
		Token: TokenConfig{
			Entitlement: "dev-all-access",
		},
		Cover: CoverConfig{
			CacheDir:         "$HOME/.editions/data/covers",
			FetchTimeout:     15 * time.Second,
			FetchConcurrency: 4,
		},
		Notification: NotificationConfig{
			Enabled:  false,
			Method:   "none",
			Duration: 4 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
