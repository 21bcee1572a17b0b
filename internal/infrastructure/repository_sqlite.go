package infrastructure

import (
	"fmt"

	"github.com/yourusername/media-relay-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteHistoryRepository implements HistoryRepository using SQLite
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository creates a new SQLite history repository
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.DownloadRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// Create stores a finished-run record
func (r *SQLiteHistoryRepository) Create(record *domain.DownloadRecord) error {
	return r.db.Create(record).Error
}

// FindByID finds a record by ID
func (r *SQLiteHistoryRepository) FindByID(id string) (*domain.DownloadRecord, error) {
	var record domain.DownloadRecord
	if err := r.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindRecent returns the most recent records, newest first
func (r *SQLiteHistoryRepository) FindRecent(limit int) ([]*domain.DownloadRecord, error) {
	var records []*domain.DownloadRecord
	query := r.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

// FindByStatus finds records by terminal status, newest first
func (r *SQLiteHistoryRepository) FindByStatus(status domain.RecordStatus) ([]*domain.DownloadRecord, error) {
	var records []*domain.DownloadRecord
	err := r.db.Where("status = ?", status).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// GetStats returns aggregate statistics
func (r *SQLiteHistoryRepository) GetStats() (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{}

	if err := r.db.Model(&domain.DownloadRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.RecordStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.DownloadRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.RecordCompleted:
			stats.Completed = sc.Count
		case domain.RecordFailed:
			stats.Failed = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
