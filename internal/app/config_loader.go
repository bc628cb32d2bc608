package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/editions-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.editions")
		v.AddConfigPath("/etc/editions")
	}

	// EDITIONS_SERVER_PORT overrides server.port
	v.SetEnvPrefix("EDITIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnvKeys registers keys so AutomaticEnv applies to Unmarshal even
// when the config file does not mention them
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.host", "server.port",
		"editions.bundle_id", "editions.feed_path", "editions.page_size", "editions.grid_width",
		"download.base_dir", "download.chunk_count", "download.chunk_delay",
		"download.prepare_delay", "download.payload_size", "download.concurrent_limit",
		"storage.database_path",
		"token.jwt", "token.entitlement",
		"cover.cache_dir", "cover.fetch_timeout", "cover.fetch_concurrency",
		"notification.enabled", "notification.method", "notification.duration",
		"logging.level", "logging.format", "logging.output_path",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Editions.FeedPath = expandPath(config.Editions.FeedPath)
	config.Download.BaseDir = expandPath(config.Download.BaseDir)
	config.Storage.DatabasePath = expandPath(config.Storage.DatabasePath)
	config.Cover.CacheDir = expandPath(config.Cover.CacheDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if strings.Contains(path, "$HOME") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Editions.BundleID == "" {
		return fmt.Errorf("editions bundle id not configured")
	}

	if config.Editions.PageSize < 1 {
		return fmt.Errorf("page size must be at least 1")
	}

	if config.Download.BaseDir == "" {
		return fmt.Errorf("download base directory not configured")
	}

	if config.Download.ConcurrentLimit < 1 {
		return fmt.Errorf("concurrent limit must be at least 1")
	}

	if config.Download.ChunkCount < 1 {
		return fmt.Errorf("chunk count must be at least 1")
	}

	if config.Storage.DatabasePath == "" {
		return fmt.Errorf("storage database path not configured")
	}

	if config.Cover.FetchConcurrency < 1 {
		config.Cover.FetchConcurrency = 1
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("server", config.Server)
	v.Set("editions", config.Editions)
	v.Set("download", config.Download)
	v.Set("storage", config.Storage)
	v.Set("token", config.Token)
	v.Set("cover", config.Cover)
	v.Set("notification", config.Notification)
	v.Set("logging", config.Logging)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
