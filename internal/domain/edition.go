package domain

import (
	"time"
)

// EditionID is the opaque identifier of an edition
type EditionID string

// Edition represents a single downloadable content unit shown in the grid
type Edition struct {
	ID          EditionID `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	CoverURL    string    `json:"cover_url"`
	ProductTag  string    `json:"product_tag" gorm:"index"`
	PublishedAt time.Time `json:"published_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Edition) TableName() string {
	return "editions"
}

// DownloadedEdition records an edition that is fully present on disk
type DownloadedEdition struct {
	EditionID    EditionID `json:"edition_id" gorm:"primaryKey"`
	Path         string    `json:"path" gorm:"not null"`
	DownloadedAt time.Time `json:"downloaded_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (DownloadedEdition) TableName() string {
	return "downloaded_editions"
}

// Presentation is the record of an opened edition
type Presentation struct {
	EditionID EditionID `json:"edition_id"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	OpenedAt  time.Time `json:"opened_at"`
}

// EditionQuery narrows a catalog listing
type EditionQuery struct {
	ProductTags []string
	StartDate   *time.Time
	EndDate     *time.Time
	PageSize    int
}

// EditionPage is one page of a catalog listing
type EditionPage struct {
	Editions []Edition
	HasNext  bool
}

// FeedEntry is a single entry of the edition feed file
type FeedEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CoverURL    string    `json:"cover_url"`
	ProductTag  string    `json:"product_tag"`
	PublishedAt time.Time `json:"published_at"`
}

// ToEdition converts a feed entry into a catalog edition
func (f FeedEntry) ToEdition() Edition {
	return Edition{
		ID:          EditionID(f.ID),
		Title:       f.Title,
		CoverURL:    f.CoverURL,
		ProductTag:  f.ProductTag,
		PublishedAt: f.PublishedAt,
	}
}
