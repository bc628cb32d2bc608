package infrastructure

import (
	"errors"
	"fmt"

	"github.com/yourusername/editions-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteRepository implements EditionRepository and AttemptRepository using SQLite
type SQLiteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Edition{}, &domain.DownloadedEdition{}, &domain.DownloadAttempt{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// ============================================================================
// EditionRepository implementation
// ============================================================================

// UpsertEditions inserts editions or refreshes their display attributes
func (r *SQLiteRepository) UpsertEditions(editions []domain.Edition) error {
	if len(editions) == 0 {
		return nil
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "cover_url", "product_tag", "published_at", "updated_at"}),
	}).Create(&editions).Error
}

// FindEdition finds an edition by ID
func (r *SQLiteRepository) FindEdition(id domain.EditionID) (*domain.Edition, error) {
	var edition domain.Edition
	err := r.db.First(&edition, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEditionNotFound
		}
		return nil, err
	}
	return &edition, nil
}

// ListEditions returns one page of editions matching the query, newest first
func (r *SQLiteRepository) ListEditions(query domain.EditionQuery, offset int) ([]domain.Edition, error) {
	var editions []domain.Edition
	db := r.filter(query).Order("published_at DESC, id ASC").Offset(offset)
	if query.PageSize > 0 {
		db = db.Limit(query.PageSize)
	}
	err := db.Find(&editions).Error
	return editions, err
}

// CountEditions returns the number of editions matching the query
func (r *SQLiteRepository) CountEditions(query domain.EditionQuery) (int64, error) {
	var count int64
	err := r.filter(query).Count(&count).Error
	return count, err
}

func (r *SQLiteRepository) filter(query domain.EditionQuery) *gorm.DB {
	db := r.db.Model(&domain.Edition{})
	if len(query.ProductTags) > 0 {
		db = db.Where("product_tag IN ?", query.ProductTags)
	}
	if query.StartDate != nil {
		db = db.Where("published_at >= ?", *query.StartDate)
	}
	if query.EndDate != nil {
		db = db.Where("published_at <= ?", *query.EndDate)
	}
	return db
}

// MarkDownloaded records an edition as present on disk
func (r *SQLiteRepository) MarkDownloaded(record *domain.DownloadedEdition) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "edition_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"path", "downloaded_at"}),
	}).Create(record).Error
}

// FindDownloaded returns the downloaded record of an edition, or nil
func (r *SQLiteRepository) FindDownloaded(id domain.EditionID) (*domain.DownloadedEdition, error) {
	var record domain.DownloadedEdition
	err := r.db.Where("edition_id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListDownloaded returns all downloaded editions
func (r *SQLiteRepository) ListDownloaded() ([]domain.DownloadedEdition, error) {
	var records []domain.DownloadedEdition
	err := r.db.Order("downloaded_at DESC").Find(&records).Error
	return records, err
}

// DeleteDownloaded removes the downloaded record of an edition
func (r *SQLiteRepository) DeleteDownloaded(id domain.EditionID) error {
	return r.db.Delete(&domain.DownloadedEdition{}, "edition_id = ?", id).Error
}

// ============================================================================
// AttemptRepository implementation
// ============================================================================

// CreateAttempt creates a new attempt
func (r *SQLiteRepository) CreateAttempt(attempt *domain.DownloadAttempt) error {
	return r.db.Create(attempt).Error
}

// UpdateAttempt updates an existing attempt
func (r *SQLiteRepository) UpdateAttempt(attempt *domain.DownloadAttempt) error {
	return r.db.Save(attempt).Error
}

// FindAttempt finds an attempt by ID
func (r *SQLiteRepository) FindAttempt(id string) (*domain.DownloadAttempt, error) {
	var attempt domain.DownloadAttempt
	err := r.db.First(&attempt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// FindAttemptsByEdition returns the attempts of an edition, newest first
func (r *SQLiteRepository) FindAttemptsByEdition(id domain.EditionID) ([]*domain.DownloadAttempt, error) {
	var attempts []*domain.DownloadAttempt
	err := r.db.Where("edition_id = ?", id).Order("created_at DESC").Find(&attempts).Error
	return attempts, err
}

// GetStats returns download attempt statistics
func (r *SQLiteRepository) GetStats() (*domain.DownloadStats, error) {
	stats := &domain.DownloadStats{}

	if err := r.db.Model(&domain.DownloadAttempt{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.DownloadStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.DownloadAttempt{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusQueued:
			stats.Queued = sc.Count
		case domain.StatusProcessing:
			stats.Processing = sc.Count
		case domain.StatusCompleted:
			stats.Completed = sc.Count
		case domain.StatusFailed:
			stats.Failed = sc.Count
		case domain.StatusCancelled:
			stats.Cancelled = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
