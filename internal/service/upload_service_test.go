package service

import (
	"testing"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/dto"
	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/pkg/serverutils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadFixture() (*memStore, *fakeBlobGateway, *fakePublisher, IUploadService) {
	store, factory := newFakeFactory()
	gateway := newFakeBlobGateway()
	publisher := &fakePublisher{}
	svc := NewUploadService(factory, gateway, publisher, 10<<20)
	return store, gateway, publisher, svc
}

func findJob(t *testing.T, store *memStore, id uuid.UUID) *entity.IngestionJob {
	t.Helper()
	for _, j := range store.jobs {
		if j.Id == id {
			return j
		}
	}
	t.Fatalf("job %s not in store", id)
	return nil
}

func TestInitUploadKnowledgeStartsPendingUpload(t *testing.T) {
	store, _, _, svc := newUploadFixture()

	resp, err := svc.InitUpload(t.Context(), uuid.New(), &dto.InitUploadRequest{
		Title:       "Cancellation policy",
		Filename:    "policy.md",
		ContentType: "text/markdown",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.UploadURL)

	job := findJob(t, store, resp.JobId)
	assert.Equal(t, constant.JobStatusQueued, job.Status)
	assert.Equal(t, constant.StagePendingUpload, job.Stage)
	assert.Nil(t, job.CompletedAt)
}

func TestInitUploadTabularJobIsBornTerminal(t *testing.T) {
	store, _, _, svc := newUploadFixture()

	resp, err := svc.InitUpload(t.Context(), uuid.New(), &dto.InitUploadRequest{
		Title:       "Customer list",
		Filename:    "customers.csv",
		ContentType: "text/csv",
	})
	require.NoError(t, err)

	// spreadsheets default to stored_only and must never look claimable
	job := findJob(t, store, resp.JobId)
	assert.Equal(t, constant.JobStatusDone, job.Status)
	assert.Equal(t, constant.StageSkipped, job.Stage)
	assert.NotNil(t, job.CompletedAt)

	require.Len(t, store.docs, 1)
	doc := store.docs[0]
	assert.Equal(t, constant.DataClassStoredOnly, doc.Classification.DataClass)
	assert.True(t, doc.Classification.ContainsPii)
}

func TestCompleteUploadStoredOnlyRepeatsAreNoops(t *testing.T) {
	store, gateway, publisher, svc := newUploadFixture()
	tenantId := uuid.New()

	initResp, err := svc.InitUpload(t.Context(), tenantId, &dto.InitUploadRequest{
		Title:       "Customer list",
		Filename:    "customers.csv",
		ContentType: "text/csv",
	})
	require.NoError(t, err)

	require.Len(t, store.versions, 1)
	gateway.objects[store.versions[0].StorageKey] = 512

	for i := 0; i < 2; i++ {
		resp, err := svc.CompleteUpload(t.Context(), tenantId, &dto.CompleteUploadRequest{
			VersionId: initResp.VersionId,
		})
		require.NoError(t, err, "call %d", i+1)
		assert.Equal(t, initResp.JobId, resp.JobId)
		assert.Equal(t, constant.JobStatusDone, resp.Status)
		assert.Equal(t, constant.StageSkipped, resp.Stage)
	}

	// nothing to wake a worker for
	assert.Empty(t, publisher.published)
	assert.Equal(t, int64(512), store.versions[0].ByteSize)
}

func TestCompleteUploadKnowledgeMakesJobClaimable(t *testing.T) {
	store, gateway, publisher, svc := newUploadFixture()
	tenantId := uuid.New()

	initResp, err := svc.InitUpload(t.Context(), tenantId, &dto.InitUploadRequest{
		Title:       "Cancellation policy",
		Filename:    "policy.md",
		ContentType: "text/markdown",
	})
	require.NoError(t, err)

	require.Len(t, store.versions, 1)
	gateway.objects[store.versions[0].StorageKey] = 2048

	resp, err := svc.CompleteUpload(t.Context(), tenantId, &dto.CompleteUploadRequest{VersionId: initResp.VersionId})
	require.NoError(t, err)
	assert.Equal(t, constant.JobStatusQueued, resp.Status)
	assert.Equal(t, constant.StageUploaded, resp.Stage)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, initResp.JobId, publisher.published[0])

	// confirming again neither re-flips the job nor wakes the worker twice
	resp, err = svc.CompleteUpload(t.Context(), tenantId, &dto.CompleteUploadRequest{VersionId: initResp.VersionId})
	require.NoError(t, err)
	assert.Equal(t, constant.JobStatusQueued, resp.Status)
	assert.Equal(t, constant.StageUploaded, resp.Stage)
	assert.Len(t, publisher.published, 1)
}

func TestCompleteUploadRejectsMissingObject(t *testing.T) {
	_, _, _, svc := newUploadFixture()
	tenantId := uuid.New()

	initResp, err := svc.InitUpload(t.Context(), tenantId, &dto.InitUploadRequest{
		Title:       "Cancellation policy",
		Filename:    "policy.md",
		ContentType: "text/markdown",
	})
	require.NoError(t, err)

	_, err = svc.CompleteUpload(t.Context(), tenantId, &dto.CompleteUploadRequest{VersionId: initResp.VersionId})
	assert.ErrorIs(t, err, serverutils.ErrObjectNotFound)
}

func TestInitUploadRejectsUnsupportedExtension(t *testing.T) {
	_, _, _, svc := newUploadFixture()

	_, err := svc.InitUpload(t.Context(), uuid.New(), &dto.InitUploadRequest{
		Title:       "Backup",
		Filename:    "dump.tar.gz",
		ContentType: "application/gzip",
	})
	assert.ErrorIs(t, err, serverutils.ErrUnsupportedFormat)
}
