package dto

import (
	"time"

	"github.com/google/uuid"
)

// ClassificationPayload is the caller-facing shape of the access classification.
// Empty strings mean "use the derived default" on init and "leave unchanged" on PATCH.
type ClassificationPayload struct {
	Audience       string     `json:"audience,omitempty"`
	ScopeType      string     `json:"scope_type,omitempty"`
	ScopeId        *uuid.UUID `json:"scope_id,omitempty"`
	DataClass      string     `json:"data_class,omitempty"`
	ContainsPii    *bool      `json:"contains_pii,omitempty"`
	AuthorityLevel string     `json:"authority_level,omitempty"`
}

type InitUploadRequest struct {
	Title          string                 `json:"title" validate:"required"`
	Filename       string                 `json:"filename" validate:"required"`
	ContentType    string                 `json:"content_type" validate:"required"`
	Classification *ClassificationPayload `json:"classification,omitempty"`
}

type InitUploadResponse struct {
	DocumentId uuid.UUID `json:"document_id"`
	VersionId  uuid.UUID `json:"version_id"`
	JobId      uuid.UUID `json:"job_id"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type CompleteUploadRequest struct {
	VersionId    uuid.UUID `json:"-"`
	ObservedSize *int64    `json:"observed_size,omitempty"`
	ContentHash  string    `json:"content_hash,omitempty"`
}

type CompleteUploadResponse struct {
	JobId  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
	Stage  string    `json:"stage"`
}

type UpdateClassificationRequest struct {
	DocumentId     uuid.UUID             `json:"-"`
	Classification ClassificationPayload `json:"classification" validate:"required"`
}

type DocumentVersionResponse struct {
	Id            uuid.UUID `json:"id"`
	VersionNumber int       `json:"version_number"`
	StorageKey    string    `json:"storage_key"`
	ByteSize      int64     `json:"byte_size"`
	MimeType      string    `json:"mime_type"`
	ContentHash   string    `json:"content_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

type ShowDocumentResponse struct {
	Id             uuid.UUID                 `json:"id"`
	Title          string                    `json:"title"`
	SourceType     string                    `json:"source_type"`
	Audience       string                    `json:"audience"`
	ScopeType      string                    `json:"scope_type"`
	ScopeId        *uuid.UUID                `json:"scope_id,omitempty"`
	DataClass      string                    `json:"data_class"`
	ContainsPii    bool                      `json:"contains_pii"`
	AuthorityLevel string                    `json:"authority_level"`
	Status         string                    `json:"status"`
	Versions       []DocumentVersionResponse `json:"versions"`
	LatestJob      *JobStatusResponse        `json:"latest_job,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      *time.Time                `json:"updated_at"`
}

type DeleteDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type ScrapeRequest struct {
	URL      string `json:"url" validate:"required,url"`
	MaxPages int    `json:"max_pages"`
}

type ScrapeResponse struct {
	JobId uuid.UUID `json:"job_id"`
}
