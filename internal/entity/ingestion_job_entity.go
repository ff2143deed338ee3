package entity

import (
	"time"

	"github.com/google/uuid"
)

// FileJobParams are the parameters of a single-file ingestion job.
type FileJobParams struct {
	VersionId uuid.UUID `json:"version_id"`
}

// SiteScrapeJobParams are the parameters of a page-scrape ingestion job.
type SiteScrapeJobParams struct {
	URL      string `json:"url"`
	MaxPages int    `json:"max_pages"`
}

type IngestionJob struct {
	Id           uuid.UUID
	TenantId     uuid.UUID
	Kind         string
	DocumentId   *uuid.UUID
	VersionId    *uuid.UUID
	Status       string
	Stage        string
	Attempts     int
	MaxAttempts  int
	ErrorCode    string
	LastError    string
	FileParams   *FileJobParams
	ScrapeParams *SiteScrapeJobParams
	Metrics      map[string]interface{}
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
