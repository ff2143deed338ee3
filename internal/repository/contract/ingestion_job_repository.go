package contract

import (
	"context"
	"time"

	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/repository/specification"

	"github.com/google/uuid"
)

type IngestionJobRepository interface {
	Create(ctx context.Context, job *entity.IngestionJob) error
	Update(ctx context.Context, job *entity.IngestionJob) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.IngestionJob, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.IngestionJob, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Claim atomically moves a claimable job into processing. Returns false when
	// another worker won the race or the job is no longer claimable.
	Claim(ctx context.Context, id uuid.UUID, retryBackoff time.Duration) (bool, error)

	// FindClaimable lists jobs a worker may attempt to claim: queued past the
	// upload confirmation, or retry_ready past the backoff window.
	FindClaimable(ctx context.Context, retryBackoff time.Duration, limit int) ([]*entity.IngestionJob, error)

	// ConfirmUpload flips a job from queued/pending_upload to queued/uploaded.
	// Returns false when the job was not waiting for an upload.
	ConfirmUpload(ctx context.Context, versionId uuid.UUID) (bool, error)

	// UpdateStage persists stage progress so it survives a worker crash.
	UpdateStage(ctx context.Context, id uuid.UUID, stage string) error

	// CancelActiveByVersion cancels queued/processing jobs for a version,
	// recording the given error code. Returns the number of jobs cancelled.
	CancelActiveByVersion(ctx context.Context, versionId uuid.UUID, errorCode string) (int64, error)

	// FailQueuedByDocument terminally fails still-queued jobs of a document
	// (two-phase delete leaves processing jobs to finish on their own).
	FailQueuedByDocument(ctx context.Context, documentId uuid.UUID, errorCode string) (int64, error)

	CountNonTerminalByVersion(ctx context.Context, versionId uuid.UUID) (int64, error)
}
