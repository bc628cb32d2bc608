package domain

import (
	"context"
)

// TokenRequestReason tells the token provider why a token is needed
type TokenRequestReason string

const (
	ReasonNoToken        TokenRequestReason = "no_token"        // no token has been handed out yet
	ReasonNoAccess       TokenRequestReason = "no_access"       // current token is invalid or expired
	ReasonNoEntitlements TokenRequestReason = "no_entitlements" // token lacks entitlement for the content
)

// TokenRequestTrigger tells the token provider what caused the request
type TokenRequestTrigger string

const (
	TriggerDownload TokenRequestTrigger = "download"
	TriggerOpen     TokenRequestTrigger = "open"
	TriggerFeed     TokenRequestTrigger = "feed"
)

// TokenProvider supplies authorization tokens to the SDK
type TokenProvider interface {
	// HasToken reports whether a token is available without prompting
	HasToken() bool

	// Token returns a token for the given reason, or an error wrapping
	// ErrAuthorizationDenied
	Token(ctx context.Context, reason TokenRequestReason, trigger TokenRequestTrigger) (string, error)
}

// AnalyticsEvent is a named event with key/value parameters
type AnalyticsEvent struct {
	Name       string
	Parameters map[string]string
}

// AnalyticsSink receives analytics events. Record never blocks and never panics.
type AnalyticsSink interface {
	Record(event AnalyticsEvent)
}

// EditionPaginator walks a catalog listing page by page
type EditionPaginator interface {
	Next(ctx context.Context) (*EditionPage, error)
}

// ItemCatalog supplies the editions shown in the grid
type ItemCatalog interface {
	// UpdateFeed reloads the feed into the catalog
	UpdateFeed(ctx context.Context) error

	// Refresh returns the editions of the first page
	Refresh(ctx context.Context) ([]Edition, error)

	// Editions opens a paginator over the catalog
	Editions(query EditionQuery) EditionPaginator
}

// ProgressListener receives the lifecycle callbacks of a single download.
// Callbacks may arrive on any goroutine.
type ProgressListener interface {
	WillStart()
	Progress(progress float64, preparing bool)
	Completed()
	Failed(err error)
}

// DownloadHandle is the SDK side of one in-flight download
type DownloadHandle interface {
	// ID is the id of the persisted download attempt
	ID() string
	Cancel()
}

// DownloadService starts edition downloads
type DownloadService interface {
	Start(ctx context.Context, id EditionID, listener ProgressListener) (DownloadHandle, error)
}

// DownloadedEditions answers questions about editions present on disk
type DownloadedEditions interface {
	IsDownloaded(id EditionID) bool
	Downloaded() ([]DownloadedEdition, error)
	Delete(ctx context.Context, id EditionID) error
}

// DiskUsageProvider reports the on-disk size of a downloaded edition
type DiskUsageProvider interface {
	DiskUsage(ctx context.Context, id EditionID) (int64, error)
}

// ContentPresenter opens a downloaded edition. A nil error means opened;
// ErrNotDownloaded and ErrEditionNotFound classify the common failures.
type ContentPresenter interface {
	Open(ctx context.Context, id EditionID) error
}

// Size is a bounding box in logical pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Cover is a cover image scaled into a bounding box
type Cover struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// CoverProvider loads cover images for editions
type CoverProvider interface {
	Cover(ctx context.Context, edition Edition, box Size) (*Cover, error)
}
