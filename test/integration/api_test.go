//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/media-relay-go/api"
	"github.com/yourusername/media-relay-go/internal/app"
	"github.com/yourusername/media-relay-go/internal/domain"
	"github.com/yourusername/media-relay-go/internal/infrastructure"
	"github.com/yourusername/media-relay-go/pkg/logger"
)

// stubSupervisor returns a canned outcome for every run.
type stubSupervisor struct {
	outcome func(req *domain.DownloadRequest) *domain.DownloadOutcome
}

func (s *stubSupervisor) Run(_ context.Context, req *domain.DownloadRequest) *domain.DownloadOutcome {
	return s.outcome(req)
}

func setupTestServer(t *testing.T, supervisor app.Supervisor) (*httptest.Server, domain.HistoryRepository) {
	t.Helper()

	baseDir := t.TempDir()
	config := domain.DefaultConfig()
	config.Download.BaseDir = baseDir
	config.Download.ExtractorBinary = "sh" // always resolvable for readiness checks
	config.History.DatabasePath = filepath.Join(baseDir, "history.db")

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   "info",
		LogsDir: config.Download.LogsDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { multiLog.Close() })

	repo, err := infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	fanout := app.NewFanOut(nil, multiLog.Notify())
	service := app.NewDownloadService(supervisor, fanout, repo, multiLog.App())

	server := httptest.NewServer(api.NewRouter(service, repo, config, multiLog))
	t.Cleanup(server.Close)

	return server, repo
}

func postDownload(t *testing.T, server *httptest.Server, payload map[string]interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(server.URL+"/api/v1/downloads", "application/json", bytes.NewBuffer(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp, result
}

func TestAPI_Download_Success(t *testing.T) {
	supervisor := &stubSupervisor{
		outcome: func(req *domain.DownloadRequest) *domain.DownloadOutcome {
			return domain.NewSuccessOutcome(req.URL, "/tmp/media/My Clip.mp4")
		},
	}
	server, _ := setupTestServer(t, supervisor)

	resp, result := postDownload(t, server, map[string]interface{}{
		"url": "https://example.com/watch?v=abc",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", result["status"])
	assert.Equal(t, "/tmp/media/My Clip.mp4", result["file_path"])
	assert.Equal(t, "My Clip.mp4", result["file_name"])
	assert.Equal(t, "My Clip", result["title"])
}

func TestAPI_Download_FailureStatusMapping(t *testing.T) {
	tests := []struct {
		kind       domain.ErrorKind
		wantStatus int
	}{
		{domain.KindAuthExpired, http.StatusUnauthorized},
		{domain.KindAgeRestricted, http.StatusForbidden},
		{domain.KindToolFailure, http.StatusInternalServerError},
		{domain.KindOutputMissing, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			supervisor := &stubSupervisor{
				outcome: func(req *domain.DownloadRequest) *domain.DownloadOutcome {
					return domain.NewFailureOutcome(req.URL, tt.kind, "extraction failed", "")
				},
			}
			server, _ := setupTestServer(t, supervisor)

			resp, result := postDownload(t, server, map[string]interface{}{
				"url": "https://example.com/watch?v=abc",
			})

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, "failed", result["status"])

			errInfo, ok := result["error"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, string(tt.kind), errInfo["kind"])
		})
	}
}

func TestAPI_Download_BadRequest(t *testing.T) {
	var runs atomic.Int32
	supervisor := &stubSupervisor{
		outcome: func(req *domain.DownloadRequest) *domain.DownloadOutcome {
			runs.Add(1)
			return domain.NewSuccessOutcome(req.URL, "/tmp/ok.mp4")
		},
	}
	server, _ := setupTestServer(t, supervisor)

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"missing url", map[string]interface{}{}},
		{"bad scheme", map[string]interface{}{"url": "ftp://example.com/file"}},
		{"start without end", map[string]interface{}{"url": "https://example.com/v", "start_time": 10}},
		{"inverted range", map[string]interface{}{"url": "https://example.com/v", "start_time": 20, "end_time": 10}},
		{"folder traversal", map[string]interface{}{"url": "https://example.com/v", "folder": "../etc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := postDownload(t, server, tt.payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	assert.Zero(t, runs.Load(), "supervisor must not run for invalid requests")
}

func TestAPI_HistoryEndpoints(t *testing.T) {
	fail := false
	supervisor := &stubSupervisor{
		outcome: func(req *domain.DownloadRequest) *domain.DownloadOutcome {
			if fail {
				return domain.NewFailureOutcome(req.URL, domain.KindToolFailure, "boom", "")
			}
			return domain.NewSuccessOutcome(req.URL, "/tmp/media/ok.mp4")
		},
	}
	server, _ := setupTestServer(t, supervisor)

	postDownload(t, server, map[string]interface{}{"url": "https://example.com/one"})
	fail = true
	postDownload(t, server, map[string]interface{}{"url": "https://example.com/two"})

	resp, err := http.Get(server.URL + "/api/v1/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Records []map[string]interface{} `json:"records"`
		Count   int                      `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.Equal(t, 2, listing.Count)

	resp, err = http.Get(server.URL + "/api/v1/history?status=failed")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Len(t, listing.Records, 1)
	assert.Equal(t, "https://example.com/two", listing.Records[0]["url"])
	assert.Equal(t, "tool_failure", listing.Records[0]["error_kind"])

	resp, err = http.Get(server.URL + "/api/v1/history/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, float64(2), stats["total"])
	assert.Equal(t, float64(1), stats["completed"])
	assert.Equal(t, float64(1), stats["failed"])

	id := listing.Records[0]["id"].(string)
	resp, err = http.Get(server.URL + "/api/v1/history/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/v1/history/no-such-id")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_HealthAndReady(t *testing.T) {
	supervisor := &stubSupervisor{
		outcome: func(req *domain.DownloadRequest) *domain.DownloadOutcome {
			return domain.NewSuccessOutcome(req.URL, "/tmp/ok.mp4")
		},
	}
	server, _ := setupTestServer(t, supervisor)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_LogCategories(t *testing.T) {
	supervisor := &stubSupervisor{
		outcome: func(req *domain.DownloadRequest) *domain.DownloadOutcome {
			return domain.NewSuccessOutcome(req.URL, "/tmp/ok.mp4")
		},
	}
	server, _ := setupTestServer(t, supervisor)

	resp, err := http.Get(server.URL + "/api/v1/logs")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Categories []string `json:"categories"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.ElementsMatch(t, []string{"app", "notify", "error"}, result.Categories)

	resp, err = http.Get(server.URL + "/api/v1/logs/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
