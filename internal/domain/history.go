package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus is the terminal status of a recorded run.
type RecordStatus string

const (
	RecordCompleted RecordStatus = "completed"
	RecordFailed    RecordStatus = "failed"
)

// DownloadRecord is the write-once audit row for one finished run. It is
// reporting data only: nothing is resumed or re-queued from it.
type DownloadRecord struct {
	ID           string       `json:"id" gorm:"primaryKey"`
	URL          string       `json:"url" gorm:"not null"`
	Status       RecordStatus `json:"status" gorm:"not null;index"`
	AudioOnly    bool         `json:"audio_only"`
	FilePath     string       `json:"file_path,omitempty"`
	Title        string       `json:"title,omitempty"`
	ErrorKind    string       `json:"error_kind,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at" gorm:"autoCreateTime;index"`
}

// NewDownloadRecord builds the audit row for a finished run.
func NewDownloadRecord(req *DownloadRequest, outcome *DownloadOutcome) *DownloadRecord {
	rec := &DownloadRecord{
		ID:        uuid.New().String(),
		URL:       req.URL,
		AudioOnly: req.AudioOnly || req.IsSoundCloud(),
		CreatedAt: time.Now(),
	}

	if outcome.Succeeded() {
		rec.Status = RecordCompleted
		rec.FilePath = outcome.FilePath
		rec.Title = outcome.Title
	} else {
		rec.Status = RecordFailed
		rec.ErrorKind = string(outcome.Err.Kind)
		rec.ErrorMessage = outcome.Err.Message
	}

	return rec
}

// HistoryStats summarizes recorded runs.
type HistoryStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// HistoryRepository defines the interface for download-history persistence
type HistoryRepository interface {
	// Create stores a finished-run record
	Create(record *DownloadRecord) error

	// FindByID finds a record by ID
	FindByID(id string) (*DownloadRecord, error)

	// FindRecent returns the most recent records, newest first
	FindRecent(limit int) ([]*DownloadRecord, error)

	// FindByStatus finds records by terminal status, newest first
	FindByStatus(status RecordStatus) ([]*DownloadRecord, error)

	// GetStats returns aggregate statistics
	GetStats() (*HistoryStats, error)

	// Close releases the underlying store
	Close() error
}
