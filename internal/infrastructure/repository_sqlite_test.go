package infrastructure

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/media-relay-go/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteHistoryRepository {
	t.Helper()
	repo, err := NewSQLiteHistoryRepository(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func record(url string, status domain.RecordStatus) *domain.DownloadRecord {
	req := &domain.DownloadRequest{URL: url}
	if status == domain.RecordCompleted {
		return domain.NewDownloadRecord(req, domain.NewSuccessOutcome(url, "/data/video/clip.mp4"))
	}
	return domain.NewDownloadRecord(req, domain.NewFailureOutcome(url, domain.KindToolFailure, "boom", ""))
}

func TestHistoryRepository_CreateAndFind(t *testing.T) {
	repo := newTestRepo(t)

	rec := record("https://example.com/a", domain.RecordCompleted)
	require.NoError(t, repo.Create(rec))

	found, err := repo.FindByID(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.URL, found.URL)
	assert.Equal(t, domain.RecordCompleted, found.Status)
	assert.Equal(t, "clip", found.Title)
}

func TestHistoryRepository_FindRecentLimit(t *testing.T) {
	repo := newTestRepo(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(record("https://example.com/v", domain.RecordCompleted)))
	}

	records, err := repo.FindRecent(3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestHistoryRepository_FindByStatus(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(record("https://example.com/ok", domain.RecordCompleted)))
	require.NoError(t, repo.Create(record("https://example.com/bad", domain.RecordFailed)))

	failed, err := repo.FindByStatus(domain.RecordFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "https://example.com/bad", failed[0].URL)
	assert.Equal(t, string(domain.KindToolFailure), failed[0].ErrorKind)
}

func TestHistoryRepository_Stats(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(record("https://example.com/1", domain.RecordCompleted)))
	require.NoError(t, repo.Create(record("https://example.com/2", domain.RecordCompleted)))
	require.NoError(t, repo.Create(record("https://example.com/3", domain.RecordFailed)))

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
}
