package service

import (
	"testing"
	"time"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/dto"
	"hebelki-knowledge-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDocument(store *memStore, tenantId uuid.UUID, dataClass string, jobStatus string) (*entity.Document, *entity.DocumentVersion, *entity.IngestionJob) {
	now := time.Now()
	doc := &entity.Document{
		Id:       uuid.New(),
		TenantId: tenantId,
		Title:    "Opening hours",
		Classification: entity.Classification{
			Audience:       constant.AudienceInternal,
			ScopeType:      constant.ScopeTypeGlobal,
			DataClass:      dataClass,
			AuthorityLevel: constant.AuthorityNormal,
		},
		SourceType: constant.SourceTypeFile,
		Status:     constant.DocumentStatusActive,
		CreatedAt:  now,
	}
	version := &entity.DocumentVersion{
		Id:            uuid.New(),
		DocumentId:    doc.Id,
		VersionNumber: 1,
		StorageKey:    "tenants/x/documents/y/v1",
		ByteSize:      1024,
		MimeType:      "text/markdown",
		CreatedAt:     now,
	}
	job := &entity.IngestionJob{
		Id:          uuid.New(),
		TenantId:    tenantId,
		Kind:        constant.JobKindFile,
		DocumentId:  &doc.Id,
		VersionId:   &version.Id,
		Status:      jobStatus,
		Stage:       constant.StageUploaded,
		MaxAttempts: constant.DefaultMaxAttempts,
		FileParams:  &entity.FileJobParams{VersionId: version.Id},
		CreatedAt:   now,
	}
	if constant.IsTerminalJobStatus(jobStatus) {
		job.Stage = constant.StageCleanup
		job.CompletedAt = &now
	}
	store.docs = append(store.docs, doc)
	store.versions = append(store.versions, version)
	store.jobs = append(store.jobs, job)
	return doc, version, job
}

func TestDeleteDocumentIsIdempotent(t *testing.T) {
	store, factory := newFakeFactory()
	publisher := &fakePublisher{}
	svc := NewDocumentService(factory, publisher)
	tenantId := uuid.New()
	doc, _, job := seedDocument(store, tenantId, constant.DataClassKnowledge, constant.JobStatusQueued)

	resp, err := svc.Delete(t.Context(), tenantId, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, constant.DocumentStatusDeletedPending, resp.Status)

	stored := findJob(t, store, job.Id)
	assert.Equal(t, constant.JobStatusFailed, stored.Status)
	assert.Equal(t, constant.ErrCodeDocumentDeleted, stored.ErrorCode)
	firstFailedAt := stored.CompletedAt

	// a second request reports the pending state without re-running teardown
	resp, err = svc.Delete(t.Context(), tenantId, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, constant.DocumentStatusDeletedPending, resp.Status)
	assert.Equal(t, firstFailedAt, findJob(t, store, job.Id).CompletedAt)
	assert.Len(t, store.jobs, 1)
}

func TestUpdateClassificationReingestGuard(t *testing.T) {
	tests := []struct {
		name        string
		jobStatus   string
		wantNewJob  bool
		wantPublish int
	}{
		{
			name:        "previous job finished, re-enqueue",
			jobStatus:   constant.JobStatusDone,
			wantNewJob:  true,
			wantPublish: 1,
		},
		{
			name:        "job still in flight, no duplicate",
			jobStatus:   constant.JobStatusQueued,
			wantNewJob:  false,
			wantPublish: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, factory := newFakeFactory()
			publisher := &fakePublisher{}
			svc := NewDocumentService(factory, publisher)
			tenantId := uuid.New()
			doc, version, _ := seedDocument(store, tenantId, constant.DataClassStoredOnly, tt.jobStatus)

			resp, err := svc.UpdateClassification(t.Context(), tenantId, &dto.UpdateClassificationRequest{
				DocumentId:     doc.Id,
				Classification: dto.ClassificationPayload{DataClass: constant.DataClassKnowledge},
			})
			require.NoError(t, err)
			assert.Equal(t, constant.DataClassKnowledge, resp.DataClass)

			wantJobs := 1
			if tt.wantNewJob {
				wantJobs = 2
			}
			assert.Len(t, store.jobs, wantJobs)
			assert.Len(t, publisher.published, tt.wantPublish)

			if tt.wantNewJob {
				created := store.jobs[1]
				assert.Equal(t, constant.JobStatusQueued, created.Status)
				assert.Equal(t, constant.StageUploaded, created.Stage)
				require.NotNil(t, created.VersionId)
				assert.Equal(t, version.Id, *created.VersionId)
			}
		})
	}
}

func TestUpdateClassificationToStoredOnlyTearsDown(t *testing.T) {
	store, factory := newFakeFactory()
	publisher := &fakePublisher{}
	svc := NewDocumentService(factory, publisher)
	tenantId := uuid.New()
	doc, version, job := seedDocument(store, tenantId, constant.DataClassKnowledge, constant.JobStatusQueued)

	chunk := &entity.DocumentChunk{Id: uuid.New(), VersionId: version.Id, Content: "9-17"}
	store.chunks = append(store.chunks, chunk)
	store.embeddings = append(store.embeddings, &entity.ChunkEmbedding{Id: uuid.New(), ChunkId: chunk.Id})

	resp, err := svc.UpdateClassification(t.Context(), tenantId, &dto.UpdateClassificationRequest{
		DocumentId:     doc.Id,
		Classification: dto.ClassificationPayload{DataClass: constant.DataClassStoredOnly},
	})
	require.NoError(t, err)
	assert.Equal(t, constant.DataClassStoredOnly, resp.DataClass)

	assert.Empty(t, store.chunks)
	assert.Empty(t, store.embeddings)
	stored := findJob(t, store, job.Id)
	assert.Equal(t, constant.JobStatusCancelled, stored.Status)
	assert.Equal(t, constant.ErrCodeDataClassChanged, stored.ErrorCode)
	assert.Empty(t, publisher.published)
}
