package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDownloadAttempt(t *testing.T) {
	attempt := NewDownloadAttempt("edition-1")

	assert.NotEmpty(t, attempt.ID)
	assert.Equal(t, EditionID("edition-1"), attempt.EditionID)
	assert.Equal(t, StatusQueued, attempt.Status)
	assert.Nil(t, attempt.StartedAt)
}

func TestNewDownloadAttempt_DistinctIDs(t *testing.T) {
	first := NewDownloadAttempt("edition-1")
	second := NewDownloadAttempt("edition-1")

	assert.NotEqual(t, first.ID, second.ID)
}

func TestDownloadAttempt_MarkProcessing(t *testing.T) {
	attempt := NewDownloadAttempt("edition-1")

	attempt.MarkProcessing()

	assert.Equal(t, StatusProcessing, attempt.Status)
	assert.NotNil(t, attempt.StartedAt)
}

func TestDownloadAttempt_MarkCompleted(t *testing.T) {
	attempt := NewDownloadAttempt("edition-1")
	filePath := "/data/editions/edition-1"

	attempt.MarkCompleted(filePath)

	assert.Equal(t, StatusCompleted, attempt.Status)
	assert.Equal(t, filePath, attempt.FilePath)
	assert.NotNil(t, attempt.CompletedAt)
}

func TestDownloadAttempt_MarkFailed(t *testing.T) {
	attempt := NewDownloadAttempt("edition-1")

	attempt.MarkFailed(errors.New("connection reset"))

	assert.Equal(t, StatusFailed, attempt.Status)
	assert.Equal(t, "connection reset", attempt.ErrorMessage)
}

func TestDownloadAttempt_IsTerminal(t *testing.T) {
	attempt := NewDownloadAttempt("edition-1")
	assert.False(t, attempt.IsTerminal())

	attempt.MarkProcessing()
	assert.False(t, attempt.IsTerminal())

	attempt.MarkCancelled()
	assert.True(t, attempt.IsTerminal())

	attempt.Status = StatusFailed
	assert.True(t, attempt.IsTerminal())

	attempt.Status = StatusCompleted
	assert.True(t, attempt.IsTerminal())
}

func TestFeedEntry_ToEdition(t *testing.T) {
	entry := FeedEntry{ID: "e-1", Title: "Morning", CoverURL: "https://example.com/c.jpg", ProductTag: "daily"}

	edition := entry.ToEdition()

	assert.Equal(t, EditionID("e-1"), edition.ID)
	assert.Equal(t, "Morning", edition.Title)
	assert.Equal(t, "https://example.com/c.jpg", edition.CoverURL)
	assert.Equal(t, "daily", edition.ProductTag)
}
