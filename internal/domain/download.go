package domain

import (
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the current status of a download attempt
type DownloadStatus string

const (
	StatusQueued     DownloadStatus = "queued"
	StatusProcessing DownloadStatus = "processing"
	StatusCompleted  DownloadStatus = "completed"
	StatusFailed     DownloadStatus = "failed"
	StatusCancelled  DownloadStatus = "cancelled"
)

// DownloadAttempt is the persisted history record of one download attempt.
// Its ID is returned by the handle and used as the coordinator's stamp.
type DownloadAttempt struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	EditionID    EditionID      `json:"edition_id" gorm:"not null;index"`
	Status       DownloadStatus `json:"status" gorm:"not null;index"`
	BytesWritten int64          `json:"bytes_written"`
	ErrorMessage string         `json:"error_message,omitempty"`
	FilePath     string         `json:"file_path,omitempty"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (DownloadAttempt) TableName() string {
	return "download_attempts"
}

// NewDownloadAttempt creates a queued attempt with a fresh identity
func NewDownloadAttempt(editionID EditionID) *DownloadAttempt {
	now := time.Now()
	return &DownloadAttempt{
		ID:        uuid.New().String(),
		EditionID: editionID,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkProcessing marks the attempt as processing
func (d *DownloadAttempt) MarkProcessing() {
	d.Status = StatusProcessing
	now := time.Now()
	d.StartedAt = &now
	d.UpdatedAt = now
}

// MarkCompleted marks the attempt as completed
func (d *DownloadAttempt) MarkCompleted(filePath string) {
	d.Status = StatusCompleted
	d.FilePath = filePath
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// MarkFailed marks the attempt as failed
func (d *DownloadAttempt) MarkFailed(err error) {
	d.Status = StatusFailed
	d.ErrorMessage = err.Error()
	d.UpdatedAt = time.Now()
}

// MarkCancelled marks the attempt as cancelled
func (d *DownloadAttempt) MarkCancelled() {
	d.Status = StatusCancelled
	d.UpdatedAt = time.Now()
}

// IsTerminal checks if the attempt is in a terminal state
func (d *DownloadAttempt) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed || d.Status == StatusCancelled
}

// DownloadStats represents download attempt statistics
type DownloadStats struct {
	Total      int64 `json:"total"`
	Queued     int64 `json:"queued"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
}
