package events

import (
	"time"

	"github.com/google/uuid"
)

// Event type codes published by the ingestion pipeline. Downstream services
// (retrieval index warmers, audit) subscribe to these.
const (
	TypeDocumentDeleted       = "DOCUMENT_DELETED"
	TypeIngestionJobCompleted = "INGESTION_JOB_COMPLETED"
	TypeReconcileFinished     = "RECONCILE_FINISHED"
)

// NewDocumentDeleted signals that a document's artifacts are gone and caches
// referencing it must be dropped.
func NewDocumentDeleted(tenantId, documentId uuid.UUID) Event {
	return BaseEvent{
		Type: TypeDocumentDeleted,
		Data: map[string]interface{}{
			"tenant_id":   tenantId.String(),
			"document_id": documentId.String(),
		},
		OccurredAt: time.Now(),
	}
}

// NewIngestionJobCompleted signals a job reaching a terminal status.
func NewIngestionJobCompleted(jobId uuid.UUID, status, errorCode string) Event {
	return BaseEvent{
		Type: TypeIngestionJobCompleted,
		Data: map[string]interface{}{
			"job_id":     jobId.String(),
			"status":     status,
			"error_code": errorCode,
		},
		OccurredAt: time.Now(),
	}
}

// NewReconcileFinished reports the outcome of an embedding reconciliation run.
func NewReconcileFinished(processed, failed, skipped int, dryRun bool) Event {
	return BaseEvent{
		Type: TypeReconcileFinished,
		Data: map[string]interface{}{
			"processed": processed,
			"failed":    failed,
			"skipped":   skipped,
			"dry_run":   dryRun,
		},
		OccurredAt: time.Now(),
	}
}
