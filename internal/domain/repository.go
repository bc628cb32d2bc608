package domain

// EditionRepository defines the interface for catalog persistence
type EditionRepository interface {
	// UpsertEditions inserts editions or refreshes their display attributes
	UpsertEditions(editions []Edition) error

	// FindEdition finds an edition by ID
	FindEdition(id EditionID) (*Edition, error)

	// ListEditions returns one page of editions matching the query, newest first
	ListEditions(query EditionQuery, offset int) ([]Edition, error)

	// CountEditions returns the number of editions matching the query
	CountEditions(query EditionQuery) (int64, error)

	// MarkDownloaded records an edition as present on disk
	MarkDownloaded(record *DownloadedEdition) error

	// FindDownloaded returns the downloaded record of an edition, or nil
	FindDownloaded(id EditionID) (*DownloadedEdition, error)

	// ListDownloaded returns all downloaded editions
	ListDownloaded() ([]DownloadedEdition, error)

	// DeleteDownloaded removes the downloaded record of an edition
	DeleteDownloaded(id EditionID) error
}

// AttemptRepository defines the interface for download attempt history
type AttemptRepository interface {
	// CreateAttempt creates a new attempt
	CreateAttempt(attempt *DownloadAttempt) error

	// UpdateAttempt updates an existing attempt
	UpdateAttempt(attempt *DownloadAttempt) error

	// FindAttempt finds an attempt by ID
	FindAttempt(id string) (*DownloadAttempt, error)

	// FindAttemptsByEdition returns the attempts of an edition, newest first
	FindAttemptsByEdition(id EditionID) ([]*DownloadAttempt, error)

	// GetStats returns download attempt statistics
	GetStats() (*DownloadStats, error)
}
