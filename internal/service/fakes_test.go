package service

import (
	"context"
	"io"
	"sort"
	"time"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/repository/contract"
	"hebelki-knowledge-be/internal/repository/specification"
	"hebelki-knowledge-be/internal/repository/unitofwork"
	"hebelki-knowledge-be/pkg/blob"

	"github.com/google/uuid"
)

// In-memory repositories backing the service tests. Specifications are
// interpreted structurally here instead of being applied to a gorm.DB, so the
// fakes only understand the specification types the services actually use.

type memStore struct {
	docs       []*entity.Document
	versions   []*entity.DocumentVersion
	jobs       []*entity.IngestionJob
	chunks     []*entity.DocumentChunk
	embeddings []*entity.ChunkEmbedding
	entries    []*entity.KnowledgeEntry
}

func matchesDocument(d *entity.Document, specs []specification.Specification) bool {
	for _, s := range specs {
		switch sp := s.(type) {
		case specification.ByID:
			if d.Id != sp.ID {
				return false
			}
		case specification.TenantOwnedBy:
			if d.TenantId != sp.TenantID {
				return false
			}
		case specification.ByStatus:
			if d.Status != sp.Status {
				return false
			}
		}
	}
	return true
}

func matchesJob(j *entity.IngestionJob, specs []specification.Specification) bool {
	for _, s := range specs {
		switch sp := s.(type) {
		case specification.ByID:
			if j.Id != sp.ID {
				return false
			}
		case specification.TenantOwnedBy:
			if j.TenantId != sp.TenantID {
				return false
			}
		case specification.ByVersionId:
			if j.VersionId == nil || *j.VersionId != sp.VersionID {
				return false
			}
		case specification.ByDocumentId:
			if j.DocumentId == nil || *j.DocumentId != sp.DocumentID {
				return false
			}
		case specification.ByStatus:
			if j.Status != sp.Status {
				return false
			}
		case specification.NonTerminalJob:
			if constant.IsTerminalJobStatus(j.Status) {
				return false
			}
		}
	}
	return true
}

func matchesVersion(v *entity.DocumentVersion, specs []specification.Specification) bool {
	for _, s := range specs {
		switch sp := s.(type) {
		case specification.ByID:
			if v.Id != sp.ID {
				return false
			}
		case specification.ByDocumentId:
			if v.DocumentId != sp.DocumentID {
				return false
			}
		}
	}
	return true
}

func sortJobs(jobs []*entity.IngestionJob, specs []specification.Specification) {
	for _, s := range specs {
		ob, ok := s.(specification.OrderBy)
		if !ok {
			continue
		}
		sort.SliceStable(jobs, func(i, j int) bool {
			if ob.Desc {
				return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
			}
			return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
		})
	}
}

func sortVersions(versions []*entity.DocumentVersion, specs []specification.Specification) {
	for _, s := range specs {
		ob, ok := s.(specification.OrderBy)
		if !ok {
			continue
		}
		sort.SliceStable(versions, func(i, j int) bool {
			a, b := versions[i], versions[j]
			if ob.Desc {
				a, b = b, a
			}
			switch ob.Field {
			case "version_number":
				return a.VersionNumber < b.VersionNumber
			default:
				return a.CreatedAt.Before(b.CreatedAt)
			}
		})
	}
}

func paginate[T any](list []T, specs []specification.Specification) []T {
	for _, s := range specs {
		p, ok := s.(specification.Pagination)
		if !ok {
			continue
		}
		if p.Offset > 0 {
			if p.Offset >= len(list) {
				return nil
			}
			list = list[p.Offset:]
		}
		if p.Limit > 0 && p.Limit < len(list) {
			list = list[:p.Limit]
		}
	}
	return list
}

type fakeDocumentRepo struct{ store *memStore }

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	c := *doc
	r.store.docs = append(r.store.docs, &c)
	return nil
}

func (r *fakeDocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	for i, d := range r.store.docs {
		if d.Id == doc.Id {
			c := *doc
			r.store.docs[i] = &c
		}
	}
	return nil
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	for _, d := range r.store.docs {
		if matchesDocument(d, specs) {
			c := *d
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	var out []*entity.Document
	for _, d := range r.store.docs {
		if matchesDocument(d, specs) {
			c := *d
			out = append(out, &c)
		}
	}
	return paginate(out, specs), nil
}

func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, d := range r.store.docs {
		if matchesDocument(d, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeDocumentRepo) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	for _, d := range r.store.docs {
		if d.Id == id {
			now := time.Now()
			d.Status = constant.DocumentStatusDeleted
			d.DeletedAt = &now
			d.IsDeleted = true
		}
	}
	return nil
}

type fakeVersionRepo struct{ store *memStore }

func (r *fakeVersionRepo) Create(ctx context.Context, version *entity.DocumentVersion) error {
	c := *version
	r.store.versions = append(r.store.versions, &c)
	return nil
}

func (r *fakeVersionRepo) BackfillUpload(ctx context.Context, id uuid.UUID, byteSize int64, contentHash string) error {
	for _, v := range r.store.versions {
		if v.Id == id {
			v.ByteSize = byteSize
			v.ContentHash = contentHash
		}
	}
	return nil
}

func (r *fakeVersionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentVersion, error) {
	var matched []*entity.DocumentVersion
	for _, v := range r.store.versions {
		if matchesVersion(v, specs) {
			matched = append(matched, v)
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}
	sortVersions(matched, specs)
	c := *matched[0]
	return &c, nil
}

func (r *fakeVersionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentVersion, error) {
	var matched []*entity.DocumentVersion
	for _, v := range r.store.versions {
		if matchesVersion(v, specs) {
			c := *v
			matched = append(matched, &c)
		}
	}
	sortVersions(matched, specs)
	return paginate(matched, specs), nil
}

func (r *fakeVersionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, v := range r.store.versions {
		if matchesVersion(v, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeVersionRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	kept := r.store.versions[:0]
	for _, v := range r.store.versions {
		if v.DocumentId != documentId {
			kept = append(kept, v)
		}
	}
	r.store.versions = kept
	return nil
}

type fakeJobRepo struct{ store *memStore }

func (r *fakeJobRepo) Create(ctx context.Context, job *entity.IngestionJob) error {
	c := *job
	r.store.jobs = append(r.store.jobs, &c)
	return nil
}

func (r *fakeJobRepo) Update(ctx context.Context, job *entity.IngestionJob) error {
	for i, j := range r.store.jobs {
		if j.Id == job.Id {
			c := *job
			r.store.jobs[i] = &c
		}
	}
	return nil
}

func (r *fakeJobRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.IngestionJob, error) {
	var matched []*entity.IngestionJob
	for _, j := range r.store.jobs {
		if matchesJob(j, specs) {
			matched = append(matched, j)
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}
	sortJobs(matched, specs)
	c := *matched[0]
	return &c, nil
}

func (r *fakeJobRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.IngestionJob, error) {
	var matched []*entity.IngestionJob
	for _, j := range r.store.jobs {
		if matchesJob(j, specs) {
			c := *j
			matched = append(matched, &c)
		}
	}
	sortJobs(matched, specs)
	return paginate(matched, specs), nil
}

func (r *fakeJobRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, j := range r.store.jobs {
		if matchesJob(j, specs) {
			n++
		}
	}
	return n, nil
}

func jobClaimable(j *entity.IngestionJob) bool {
	switch j.Status {
	case constant.JobStatusQueued:
		return j.Stage != constant.StagePendingUpload
	case constant.JobStatusRetryReady:
		return true
	}
	return false
}

func (r *fakeJobRepo) Claim(ctx context.Context, id uuid.UUID, retryBackoff time.Duration) (bool, error) {
	for _, j := range r.store.jobs {
		if j.Id != id {
			continue
		}
		if !jobClaimable(j) {
			return false, nil
		}
		now := time.Now()
		j.Status = constant.JobStatusProcessing
		j.Stage = constant.StageDownloading
		j.Attempts++
		j.StartedAt = &now
		return true, nil
	}
	return false, nil
}

func (r *fakeJobRepo) FindClaimable(ctx context.Context, retryBackoff time.Duration, limit int) ([]*entity.IngestionJob, error) {
	var out []*entity.IngestionJob
	for _, j := range r.store.jobs {
		if jobClaimable(j) {
			c := *j
			out = append(out, &c)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeJobRepo) ConfirmUpload(ctx context.Context, versionId uuid.UUID) (bool, error) {
	for _, j := range r.store.jobs {
		if j.VersionId != nil && *j.VersionId == versionId &&
			j.Status == constant.JobStatusQueued && j.Stage == constant.StagePendingUpload {
			j.Stage = constant.StageUploaded
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeJobRepo) UpdateStage(ctx context.Context, id uuid.UUID, stage string) error {
	for _, j := range r.store.jobs {
		if j.Id == id {
			j.Stage = stage
		}
	}
	return nil
}

func (r *fakeJobRepo) CancelActiveByVersion(ctx context.Context, versionId uuid.UUID, errorCode string) (int64, error) {
	var n int64
	now := time.Now()
	for _, j := range r.store.jobs {
		if j.VersionId == nil || *j.VersionId != versionId {
			continue
		}
		if j.Status == constant.JobStatusQueued || j.Status == constant.JobStatusProcessing {
			j.Status = constant.JobStatusCancelled
			j.ErrorCode = errorCode
			j.CompletedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *fakeJobRepo) FailQueuedByDocument(ctx context.Context, documentId uuid.UUID, errorCode string) (int64, error) {
	var n int64
	now := time.Now()
	for _, j := range r.store.jobs {
		if j.DocumentId == nil || *j.DocumentId != documentId {
			continue
		}
		if j.Status == constant.JobStatusQueued {
			j.Status = constant.JobStatusFailed
			j.ErrorCode = errorCode
			j.CompletedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *fakeJobRepo) CountNonTerminalByVersion(ctx context.Context, versionId uuid.UUID) (int64, error) {
	var n int64
	for _, j := range r.store.jobs {
		if j.VersionId != nil && *j.VersionId == versionId && !constant.IsTerminalJobStatus(j.Status) {
			n++
		}
	}
	return n, nil
}

type fakeChunkRepo struct{ store *memStore }

func (r *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	r.store.chunks = append(r.store.chunks, chunks...)
	return nil
}

func (r *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return r.store.chunks, nil
}

func (r *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.store.chunks)), nil
}

func (r *fakeChunkRepo) DeleteByVersionId(ctx context.Context, versionId uuid.UUID) error {
	kept := r.store.chunks[:0]
	for _, c := range r.store.chunks {
		if c.VersionId != versionId {
			kept = append(kept, c)
		}
	}
	r.store.chunks = kept
	return nil
}

func (r *fakeChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	versionIds := map[uuid.UUID]bool{}
	for _, v := range r.store.versions {
		if v.DocumentId == documentId {
			versionIds[v.Id] = true
		}
	}
	kept := r.store.chunks[:0]
	for _, c := range r.store.chunks {
		if !versionIds[c.VersionId] {
			kept = append(kept, c)
		}
	}
	r.store.chunks = kept
	return nil
}

type fakeEmbeddingRepo struct{ store *memStore }

func (r *fakeEmbeddingRepo) CreateBulk(ctx context.Context, embeddings []*entity.ChunkEmbedding) error {
	r.store.embeddings = append(r.store.embeddings, embeddings...)
	return nil
}

func (r *fakeEmbeddingRepo) Update(ctx context.Context, embedding *entity.ChunkEmbedding) error {
	return nil
}

func (r *fakeEmbeddingRepo) DeleteByVersionId(ctx context.Context, versionId uuid.UUID) error {
	chunkIds := map[uuid.UUID]bool{}
	for _, c := range r.store.chunks {
		if c.VersionId == versionId {
			chunkIds[c.Id] = true
		}
	}
	kept := r.store.embeddings[:0]
	for _, e := range r.store.embeddings {
		if !chunkIds[e.ChunkId] {
			kept = append(kept, e)
		}
	}
	r.store.embeddings = kept
	return nil
}

func (r *fakeEmbeddingRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	versionIds := map[uuid.UUID]bool{}
	for _, v := range r.store.versions {
		if v.DocumentId == documentId {
			versionIds[v.Id] = true
		}
	}
	chunkIds := map[uuid.UUID]bool{}
	for _, c := range r.store.chunks {
		if versionIds[c.VersionId] {
			chunkIds[c.Id] = true
		}
	}
	kept := r.store.embeddings[:0]
	for _, e := range r.store.embeddings {
		if !chunkIds[e.ChunkId] {
			kept = append(kept, e)
		}
	}
	r.store.embeddings = kept
	return nil
}

func (r *fakeEmbeddingRepo) FindStale(ctx context.Context, currentVersion string, legacy []string, tenantId *uuid.UUID, limit int) ([]*contract.StaleChunkEmbedding, error) {
	return nil, nil
}

func (r *fakeEmbeddingRepo) CountByPreprocess(ctx context.Context, currentVersion string, tenantId *uuid.UUID) (int64, int64, error) {
	return 0, 0, nil
}

type fakeEntryRepo struct{ store *memStore }

func (r *fakeEntryRepo) Create(ctx context.Context, entry *entity.KnowledgeEntry) error {
	c := *entry
	r.store.entries = append(r.store.entries, &c)
	return nil
}

func (r *fakeEntryRepo) Update(ctx context.Context, entry *entity.KnowledgeEntry) error {
	for i, e := range r.store.entries {
		if e.Id == entry.Id {
			c := *entry
			r.store.entries[i] = &c
		}
	}
	return nil
}

func (r *fakeEntryRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeEntry, error) {
	if len(r.store.entries) == 0 {
		return nil, nil
	}
	c := *r.store.entries[0]
	return &c, nil
}

func (r *fakeEntryRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEntry, error) {
	return r.store.entries, nil
}

func (r *fakeEntryRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.store.entries)), nil
}

func (r *fakeEntryRepo) UpsertBySourceURL(ctx context.Context, entry *entity.KnowledgeEntry) error {
	for i, e := range r.store.entries {
		if e.TenantId == entry.TenantId && e.SourceURL == entry.SourceURL {
			c := *entry
			c.Id = e.Id
			r.store.entries[i] = &c
			return nil
		}
	}
	return r.Create(ctx, entry)
}

func (r *fakeEntryRepo) FindStale(ctx context.Context, currentVersion string, legacy []string, tenantId *uuid.UUID, limit int) ([]*entity.KnowledgeEntry, error) {
	return nil, nil
}

func (r *fakeEntryRepo) CountByPreprocess(ctx context.Context, currentVersion string, tenantId *uuid.UUID) (int64, int64, error) {
	return 0, 0, nil
}

type fakeUnitOfWork struct {
	store   *memStore
	commits int
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { u.commits++; return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }

func (u *fakeUnitOfWork) DocumentRepository() contract.DocumentRepository {
	return &fakeDocumentRepo{store: u.store}
}

func (u *fakeUnitOfWork) DocumentVersionRepository() contract.DocumentVersionRepository {
	return &fakeVersionRepo{store: u.store}
}

func (u *fakeUnitOfWork) IngestionJobRepository() contract.IngestionJobRepository {
	return &fakeJobRepo{store: u.store}
}

func (u *fakeUnitOfWork) DocumentChunkRepository() contract.DocumentChunkRepository {
	return &fakeChunkRepo{store: u.store}
}

func (u *fakeUnitOfWork) ChunkEmbeddingRepository() contract.ChunkEmbeddingRepository {
	return &fakeEmbeddingRepo{store: u.store}
}

func (u *fakeUnitOfWork) KnowledgeEntryRepository() contract.KnowledgeEntryRepository {
	return &fakeEntryRepo{store: u.store}
}

type fakeFactory struct{ uow *fakeUnitOfWork }

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

func newFakeFactory() (*memStore, unitofwork.RepositoryFactory) {
	store := &memStore{}
	return store, &fakeFactory{uow: &fakeUnitOfWork{store: store}}
}

// fakeBlobGateway keeps object sizes in a map; tests drop a key in to simulate
// a finished client upload.
type fakeBlobGateway struct {
	objects map[string]int64
}

func newFakeBlobGateway() *fakeBlobGateway {
	return &fakeBlobGateway{objects: map[string]int64{}}
}

func (g *fakeBlobGateway) IssueUploadURL(ctx context.Context, key string, maxBytes int64) (*blob.SignedURL, error) {
	return &blob.SignedURL{URL: "http://blob.test/upload/" + key, ExpiresAt: time.Now().Add(15 * time.Minute)}, nil
}

func (g *fakeBlobGateway) IssueDownloadURL(ctx context.Context, key string) (*blob.SignedURL, error) {
	return &blob.SignedURL{URL: "http://blob.test/download/" + key, ExpiresAt: time.Now().Add(15 * time.Minute)}, nil
}

func (g *fakeBlobGateway) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := g.objects[key]
	return ok, nil
}

func (g *fakeBlobGateway) Stat(ctx context.Context, key string) (int64, error) {
	size, ok := g.objects[key]
	if !ok {
		return 0, blob.ErrNotFound
	}
	return size, nil
}

func (g *fakeBlobGateway) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, blob.ErrNotFound
}

func (g *fakeBlobGateway) Remove(ctx context.Context, key string) error {
	delete(g.objects, key)
	return nil
}

type fakePublisher struct {
	published []uuid.UUID
}

func (p *fakePublisher) PublishJobReady(ctx context.Context, jobId uuid.UUID) error {
	p.published = append(p.published, jobId)
	return nil
}
