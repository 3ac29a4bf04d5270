package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/yt-batch/internal/domain"
)

// SQLiteRunRepository implements RunRepository using SQLite
type SQLiteRunRepository struct {
	db *gorm.DB
}

// NewSQLiteRunRepository creates a new SQLite repository
func NewSQLiteRunRepository(dbPath string) (*SQLiteRunRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.RunRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteRunRepository{db: db}, nil
}

// Save inserts or replaces a run record
func (r *SQLiteRunRepository) Save(record *domain.RunRecord) error {
	return r.db.Save(record).Error
}

// FindByID finds a run by ID
func (r *SQLiteRunRepository) FindByID(id string) (*domain.RunRecord, error) {
	var record domain.RunRecord
	err := r.db.First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
		}
		return nil, err
	}
	return &record, nil
}

// List returns the most recent runs first
func (r *SQLiteRunRepository) List(limit int) ([]*domain.RunRecord, error) {
	var records []*domain.RunRecord
	query := r.db.Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

// GetStats returns run statistics
func (r *SQLiteRunRepository) GetStats() (*domain.RunStats, error) {
	stats := &domain.RunStats{}

	if err := r.db.Model(&domain.RunRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	stateCounts := []struct {
		State domain.BatchState
		Count int64
	}{}

	if err := r.db.Model(&domain.RunRecord{}).
		Select("state, count(*) as count").
		Group("state").
		Scan(&stateCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range stateCounts {
		switch sc.State {
		case domain.StateCompleted:
			stats.Completed = sc.Count
		case domain.StateStopped:
			stats.Stopped = sc.Count
		case domain.StateFailedToStart:
			stats.FailedToStart = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteRunRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
