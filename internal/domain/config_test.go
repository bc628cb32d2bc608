package domain

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "fi.richie.editionsTestApp", config.Editions.BundleID)
	assert.Equal(t, 50, config.Editions.PageSize)
	assert.Equal(t, 20, config.Download.ChunkCount)
	assert.Equal(t, 150*time.Millisecond, config.Download.ChunkDelay)
	assert.Equal(t, 2, config.Download.ConcurrentLimit)
	assert.Equal(t, "dev-all-access", config.Token.Entitlement)
	assert.Equal(t, 4*time.Second, config.Notification.Duration)
	assert.False(t, config.Notification.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestDownloadConfig_Dirs(t *testing.T) {
	cfg := DownloadConfig{BaseDir: "/data"}

	assert.Equal(t, filepath.Join("/data", "incoming"), cfg.IncomingDir())
	assert.Equal(t, filepath.Join("/data", "editions"), cfg.EditionsDir())
	assert.Equal(t, filepath.Join("/data", "logs"), cfg.LogsDir())
}
