package constant

// Document lifecycle status
const (
	DocumentStatusActive         = "active"
	DocumentStatusDeletedPending = "deleted_pending"
	DocumentStatusDeleted        = "deleted"
)

// Audience values
const (
	AudiencePublic   = "public"
	AudienceInternal = "internal"
)

// Scope types
const (
	ScopeTypeGlobal   = "global"
	ScopeTypeCustomer = "customer"
	ScopeTypeStaff    = "staff"
)

// Data classes
const (
	DataClassKnowledge  = "knowledge"
	DataClassStoredOnly = "stored_only"
)

// Authority levels (used by retrieval ranking)
const (
	AuthorityCanonical  = "canonical"
	AuthorityHigh       = "high"
	AuthorityNormal     = "normal"
	AuthorityLow        = "low"
	AuthorityUnverified = "unverified"
)

// Document source types
const (
	SourceTypeFile    = "file"
	SourceTypeWebPage = "web_page"
)

// Ingestion job kinds
const (
	JobKindFile       = "file"
	JobKindSiteScrape = "site_scrape"
)

// Ingestion job statuses
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusDone       = "done"
	JobStatusFailed     = "failed"
	JobStatusRetryReady = "retry_ready"
	JobStatusCancelled  = "cancelled"
)

// Ingestion job stages
const (
	StagePendingUpload = "pending_upload"
	StageUploaded      = "uploaded"
	StageReady         = "ready" // scrape jobs have nothing to upload
	StageDownloading   = "downloading"
	StageParsing       = "parsing"
	StageChunking      = "chunking"
	StageEmbedding     = "embedding"
	StageCleanup       = "cleanup"
	StageSkipped       = "skipped"
)

// Job error codes
const (
	ErrCodeDataClassChanged   = "dataclass_changed"
	ErrCodeDocumentDeleted    = "document_deleted"
	ErrCodeUnsupportedContent = "unsupported_content"
	ErrCodeEmptyContent       = "empty_content"
	ErrCodeDownloadFailed     = "download_failed"
	ErrCodeEmbedFailed        = "embed_failed"
	ErrCodeStorageFailed      = "storage_failed"
	ErrCodeScrapeFailed       = "scrape_failed"
)

// DefaultMaxAttempts is the retry budget before a job fails terminally.
const DefaultMaxAttempts = 3

// Legacy preprocess-version sentinels. Rows stamped with one of these (or NULL)
// are picked up by reconciliation regardless of the current recipe.
var LegacyPreprocessVersions = []string{"", "v0"}

// stageProgress maps a processing stage to the percentage reported to callers.
// Presentation convenience only, never used to drive transitions.
var stageProgress = map[string]int{
	StagePendingUpload: 0,
	StageUploaded:      10,
	StageReady:         10,
	StageDownloading:   15,
	StageParsing:       30,
	StageChunking:      60,
	StageEmbedding:     80,
	StageCleanup:       95,
	StageSkipped:       100,
}

// JobProgress derives a 0-100 progress indicator from a job's status and stage.
func JobProgress(status, stage string) int {
	switch status {
	case JobStatusDone:
		return 100
	case JobStatusFailed, JobStatusCancelled:
		return 0
	case JobStatusRetryReady:
		return 5
	}
	if p, ok := stageProgress[stage]; ok {
		return p
	}
	return 0
}

// IsTerminalJobStatus reports whether no further transition may leave the status
// (except the explicit administrative failed -> queued retry).
func IsTerminalJobStatus(status string) bool {
	switch status {
	case JobStatusDone, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// SupportedUploadFormats maps lower-cased file extensions to canonical MIME types.
// Anything else is rejected at init-upload with UnsupportedFormat.
var SupportedUploadFormats = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".htm":  "text/html",
	".csv":  "text/csv",
	".tsv":  "text/tab-separated-values",
	".json": "application/json",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// TabularFormats are extensions that default to stored_only + containsPii:
// spreadsheets uploaded to a booking business are customer lists more often than
// they are knowledge.
var TabularFormats = map[string]bool{
	".csv":  true,
	".tsv":  true,
	".xlsx": true,
}

// Valid enum sets for classification validation.
var (
	ValidAudiences = map[string]bool{
		AudiencePublic:   true,
		AudienceInternal: true,
	}
	ValidScopeTypes = map[string]bool{
		ScopeTypeGlobal:   true,
		ScopeTypeCustomer: true,
		ScopeTypeStaff:    true,
	}
	ValidDataClasses = map[string]bool{
		DataClassKnowledge:  true,
		DataClassStoredOnly: true,
	}
	ValidAuthorityLevels = map[string]bool{
		AuthorityCanonical:  true,
		AuthorityHigh:       true,
		AuthorityNormal:     true,
		AuthorityLow:        true,
		AuthorityUnverified: true,
	}
)
