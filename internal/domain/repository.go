package domain

import (
	"strings"
	"time"
)

// RunRecord is the stored summary of a finished batch run
type RunRecord struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	Source     SourceKind `json:"source" gorm:"not null"`
	Input      string     `json:"input" gorm:"not null"`
	Quality    Quality    `json:"quality"`
	AudioOnly  bool       `json:"audio_only"`
	OutputDir  string     `json:"output_dir"`
	State      BatchState `json:"state" gorm:"not null;index"`
	Total      int        `json:"total"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	FailedURLs string     `json:"failed_urls,omitempty" gorm:"type:text"` // newline separated
	Reason     string     `json:"reason,omitempty"`
	StartedAt  time.Time  `json:"started_at" gorm:"index"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (RunRecord) TableName() string {
	return "batch_runs"
}

// NewRunRecord builds a record from a finished result
func NewRunRecord(req BatchRequest, result *BatchResult) *RunRecord {
	return &RunRecord{
		ID:         result.RunID,
		Source:     result.Source,
		Input:      result.Input,
		Quality:    req.Quality,
		AudioOnly:  req.AudioOnly,
		OutputDir:  req.OutputDir,
		State:      result.State,
		Total:      result.Total,
		Succeeded:  result.Succeeded,
		Failed:     result.Failed(),
		FailedURLs: strings.Join(result.FailedURLs, "\n"),
		Reason:     result.Reason,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}
}

// FailedURLList splits the stored failed URLs
func (r *RunRecord) FailedURLList() []string {
	if r.FailedURLs == "" {
		return nil
	}
	return strings.Split(r.FailedURLs, "\n")
}

// RunRepository defines the interface for run history persistence
type RunRepository interface {
	// Save inserts or replaces a run record
	Save(record *RunRecord) error

	// FindByID finds a run by ID; returns ErrRunNotFound when absent
	FindByID(id string) (*RunRecord, error)

	// List returns the most recent runs first, up to limit (0 = all)
	List(limit int) ([]*RunRecord, error)

	// GetStats returns aggregate counts by state
	GetStats() (*RunStats, error)
}

// RunStats represents run history statistics
type RunStats struct {
	Total         int64 `json:"total"`
	Completed     int64 `json:"completed"`
	Stopped       int64 `json:"stopped"`
	FailedToStart int64 `json:"failed_to_start"`
}
