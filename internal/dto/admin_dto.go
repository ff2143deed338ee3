package dto

import "github.com/google/uuid"

type ReconcileRequest struct {
	TenantId  *uuid.UUID `json:"tenant_id,omitempty"`
	BatchSize int        `json:"batch_size" validate:"omitempty,min=1,max=10000"`
	DryRun    bool       `json:"dry_run"`
}

type ReconcileResponse struct {
	Processed  int   `json:"processed"`
	Failed     int   `json:"failed"`
	Skipped    int   `json:"skipped"`
	DurationMs int64 `json:"duration_ms"`
}

// EmbeddingStatusResponse reports, per tenant, how many rows carry the current
// preprocess version vs. a legacy one. Drives the operational dashboard.
type EmbeddingStatusResponse struct {
	TenantId              *uuid.UUID `json:"tenant_id,omitempty"`
	CurrentVersion        string     `json:"current_version"`
	KnowledgeCurrent      int64      `json:"knowledge_current"`
	KnowledgeStale        int64      `json:"knowledge_stale"`
	ChunkEmbeddingCurrent int64      `json:"chunk_embedding_current"`
	ChunkEmbeddingStale   int64      `json:"chunk_embedding_stale"`
	Cached                bool       `json:"cached"`
}
