package dto

import (
	"time"

	"github.com/google/uuid"
)

// PublishJobReadyMessage is the payload pushed onto the internal topic when a
// job becomes claimable. The worker treats it as a wake-up, not as the claim.
type PublishJobReadyMessage struct {
	JobId uuid.UUID `json:"job_id"`
}

type JobStatusResponse struct {
	Id          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	DocumentId  *uuid.UUID `json:"document_id,omitempty"`
	VersionId   *uuid.UUID `json:"version_id,omitempty"`
	Status      string     `json:"status"`
	Stage       string     `json:"stage"`
	Progress    int        `json:"progress"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	ErrorCode   string     `json:"error_code,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type RetryJobResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
	Stage  string    `json:"stage"`
}
