package entity

import (
	"time"

	"github.com/google/uuid"
)

// Classification groups the access-control facet of a document. ScopeId is
// required whenever ScopeType is not global.
type Classification struct {
	Audience       string
	ScopeType      string
	ScopeId        *uuid.UUID
	DataClass      string
	ContainsPii    bool
	AuthorityLevel string
}

type Document struct {
	Id                uuid.UUID
	TenantId          uuid.UUID
	Title             string
	SourceType        string
	Classification    Classification
	Status            string
	DeleteRequestedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         *time.Time
	DeletedAt         *time.Time
	IsDeleted         bool
}

type DocumentVersion struct {
	Id            uuid.UUID
	DocumentId    uuid.UUID
	VersionNumber int
	StorageKey    string
	ByteSize      int64
	MimeType      string
	ContentHash   string
	CreatedAt     time.Time
}
