//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/editions-go/api"
	"github.com/yourusername/editions-go/internal/bootstrap"
	"github.com/yourusername/editions-go/internal/domain"
)

func setupTestServer(t *testing.T, configure ...func(*domain.Config)) (*httptest.Server, *bootstrap.Runtime) {
	t.Helper()
	base := t.TempDir()

	config := domain.DefaultConfig()
	config.Editions.FeedPath = filepath.Join(base, "feed.json")
	config.Editions.PageSize = 6
	config.Download.BaseDir = filepath.Join(base, "data")
	config.Download.ChunkCount = 4
	config.Download.ChunkDelay = 5 * time.Millisecond
	config.Download.PrepareDelay = 5 * time.Millisecond
	config.Download.PayloadSize = 64 << 10
	config.Storage.DatabasePath = filepath.Join(base, "data", "editions.db")
	config.Cover.CacheDir = filepath.Join(base, "data", "covers")
	config.Logging.OutputPath = filepath.Join(base, "server.log")
	for _, fn := range configure {
		fn(config)
	}

	rt, err := bootstrap.New(context.Background(), config)
	require.NoError(t, err)
	require.NoError(t, rt.Session.Load(context.Background()))

	router := api.SetupRouter(api.RouterDeps{
		Session:    rt.Session,
		History:    rt.SDK,
		Readiness:  rt.SDK,
		Notices:    rt.Notices,
		LogAdapter: rt.LogAdapter,
		LogsDir:    config.Download.LogsDir(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rt.Close(ctx)
	})
	return server, rt
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

type cell struct {
	EditionID  string `json:"edition_id"`
	State      string `json:"state"`
	Downloaded bool   `json:"downloaded"`
}

func TestAPI_Ready(t *testing.T) {
	server, _ := setupTestServer(t)

	var body map[string]interface{}
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/ready", &body))
	assert.Equal(t, "ready", body["status"])
}

func TestAPI_DownloadOpenDelete(t *testing.T) {
	server, _ := setupTestServer(t)

	var grid struct {
		Count int    `json:"count"`
		Cells []cell `json:"cells"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/editions", &grid))
	require.Equal(t, 6, grid.Count)
	id := grid.Cells[0].EditionID
	editionURL := server.URL + "/api/v1/editions/" + id

	var tap struct {
		Signal  string `json:"signal"`
		Outcome string `json:"outcome"`
	}
	require.Equal(t, http.StatusOK, postJSON(t, editionURL+"/tap", &tap))
	assert.Equal(t, "downloading", tap.Signal)

	require.Eventually(t, func() bool {
		var c cell
		getJSON(t, editionURL, &c)
		return c.Downloaded
	}, 10*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		var health struct {
			SDK struct {
				LastOpened *domain.Presentation `json:"last_opened"`
			} `json:"sdk"`
		}
		getJSON(t, server.URL+"/health", &health)
		return health.SDK.LastOpened != nil && string(health.SDK.LastOpened.EditionID) == id
	}, 5*time.Second, 20*time.Millisecond, "drained download is presented")

	require.Equal(t, http.StatusOK, postJSON(t, editionURL+"/tap", &tap))
	assert.Equal(t, "should_present", tap.Signal)
	assert.Equal(t, "opened", tap.Outcome)

	var stats domain.DownloadStats
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/downloads/stats", &stats))
	assert.Equal(t, int64(1), stats.Completed)

	var press map[string]interface{}
	require.Equal(t, http.StatusOK, postJSON(t, editionURL+"/long-press", &press))
	require.Eventually(t, func() bool {
		var c cell
		getJSON(t, editionURL, &c)
		return !c.Downloaded && c.State == "Not downloaded"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestAPI_ActiveDownloadMatchesAttempt(t *testing.T) {
	server, _ := setupTestServer(t, func(config *domain.Config) {
		config.Download.ChunkDelay = time.Second
	})

	var grid struct {
		Cells []cell `json:"cells"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/editions", &grid))
	id := grid.Cells[0].EditionID

	var tap map[string]interface{}
	require.Equal(t, http.StatusOK, postJSON(t, server.URL+"/api/v1/editions/"+id+"/tap", &tap))

	var active struct {
		Count     int `json:"count"`
		Downloads map[string]struct {
			Stamp string `json:"stamp"`
		} `json:"downloads"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/downloads", &active))
	require.Equal(t, 1, active.Count)

	var history struct {
		Attempts []domain.DownloadAttempt `json:"attempts"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/downloads/"+id+"/attempts", &history))
	require.Len(t, history.Attempts, 1)
	assert.Equal(t, history.Attempts[0].ID, active.Downloads[id].Stamp)
}

func TestAPI_UnknownEdition(t *testing.T) {
	server, _ := setupTestServer(t)

	var body map[string]interface{}
	assert.Equal(t, http.StatusNotFound, postJSON(t, server.URL+"/api/v1/editions/nope/tap", &body))
}
