package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/repository/specification"
	"hebelki-knowledge-be/internal/repository/unitofwork"
	"hebelki-knowledge-be/pkg/blob"
	"hebelki-knowledge-be/pkg/chunker"
	"hebelki-knowledge-be/pkg/extract"
	"hebelki-knowledge-be/pkg/ingest"

	"github.com/google/uuid"
)

// runFileJob executes the full file pipeline for a claimed job. The claim set
// the stage to downloading already.
func (e *Engine) runFileJob(ctx context.Context, uow unitofwork.UnitOfWork, job *entity.IngestionJob) (map[string]interface{}, error) {
	if job.FileParams == nil {
		return nil, terminalErr(constant.ErrCodeUnsupportedContent, errors.New("file job without params"))
	}

	version, err := uow.DocumentVersionRepository().FindOne(ctx, specification.ByID{ID: job.FileParams.VersionId})
	if err != nil {
		return nil, retryableErr(constant.ErrCodeStorageFailed, err)
	}
	if version == nil {
		return nil, terminalErr(constant.ErrCodeDocumentDeleted, errors.New("version no longer exists"))
	}

	doc, err := e.loadIngestableDocument(ctx, uow, version.DocumentId)
	if err != nil {
		return nil, err
	}

	// download
	raw, err := e.download(ctx, version.StorageKey)
	if err != nil {
		return nil, err
	}

	// parse
	if err := e.enterStage(ctx, uow, job, constant.StageParsing); err != nil {
		return nil, err
	}
	text, err := e.extractor.Extract(ctx, raw, version.MimeType)
	if err != nil {
		return nil, classifyExtractErr(err)
	}
	normalized := ingest.NormalizeText(text)
	if normalized == "" {
		return nil, terminalErr(constant.ErrCodeEmptyContent, errors.New("no text after normalization"))
	}

	// chunk
	if err := e.enterStage(ctx, uow, job, constant.StageChunking); err != nil {
		return nil, err
	}
	chunks, err := e.chunker.Split(normalized, version.MimeType)
	if err != nil {
		return nil, terminalErr(constant.ErrCodeUnsupportedContent, err)
	}
	if len(chunks) == 0 {
		return nil, terminalErr(constant.ErrCodeEmptyContent, errors.New("chunker produced no chunks"))
	}

	// embed
	if err := e.enterStage(ctx, uow, job, constant.StageEmbedding); err != nil {
		return nil, err
	}
	vectors, err := e.embedChunks(ctx, doc.Title, chunks)
	if err != nil {
		return nil, err
	}

	// persist, replacing whatever a previous attempt left behind
	if err := e.enterStage(ctx, uow, job, constant.StageCleanup); err != nil {
		return nil, err
	}
	if err := e.storeChunks(ctx, doc, version.Id, chunks, vectors); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"chunks": len(chunks),
		"bytes":  version.ByteSize,
	}, nil
}

// loadIngestableDocument enforces the two rules every stage depends on: the
// document must still be live and must still want embeddings.
func (e *Engine) loadIngestableDocument(ctx context.Context, uow unitofwork.UnitOfWork, documentId uuid.UUID, extra ...specification.Specification) (*entity.Document, error) {
	specs := append([]specification.Specification{specification.ByID{ID: documentId}}, extra...)
	doc, err := uow.DocumentRepository().FindOne(ctx, specs...)
	if err != nil {
		return nil, retryableErr(constant.ErrCodeStorageFailed, err)
	}
	if doc == nil || doc.Status != constant.DocumentStatusActive {
		return nil, terminalErr(constant.ErrCodeDocumentDeleted, errors.New("document is gone or being deleted"))
	}
	if doc.Classification.DataClass != constant.DataClassKnowledge {
		return nil, terminalErr(constant.ErrCodeDataClassChanged, errors.New("document is "+doc.Classification.DataClass))
	}
	return doc, nil
}

func (e *Engine) download(ctx context.Context, storageKey string) (io.Reader, error) {
	rc, err := e.blobGateway.Fetch(ctx, storageKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, terminalErr(constant.ErrCodeDownloadFailed, err)
		}
		return nil, retryableErr(constant.ErrCodeDownloadFailed, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, retryableErr(constant.ErrCodeDownloadFailed, err)
	}
	return bytes.NewReader(data), nil
}

func classifyExtractErr(err error) error {
	switch {
	case errors.Is(err, extract.ErrUnsupportedContent):
		return terminalErr(constant.ErrCodeUnsupportedContent, err)
	case errors.Is(err, extract.ErrEmptyContent):
		return terminalErr(constant.ErrCodeEmptyContent, err)
	default:
		// parsers are deterministic; retrying the same bytes will not help
		return terminalErr(constant.ErrCodeUnsupportedContent, err)
	}
}

func (e *Engine) embedChunks(ctx context.Context, title string, chunks []chunker.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = ingest.EmbedText(title, c.Content)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.cfg.EmbedBatch {
		end := start + e.cfg.EmbedBatch
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.provider.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, retryableErr(constant.ErrCodeEmbedFailed, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// storeChunks swaps the version's chunks and embeddings in one transaction.
// Re-running an attempt is idempotent: old rows go first.
func (e *Engine) storeChunks(ctx context.Context, doc *entity.Document, versionId uuid.UUID, chunks []chunker.Chunk, vectors [][]float32) error {
	uow := e.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return retryableErr(constant.ErrCodeStorageFailed, err)
	}
	defer uow.Rollback()

	// The document may have been deleted or reclassified since the last check.
	// The row lock makes this re-check serialize against a concurrent
	// classification flip: either the flip waits and sees our rows to delete,
	// or we see its commit and abort before inserting.
	if _, err := e.loadIngestableDocument(ctx, uow, doc.Id, specification.ForUpdate{}); err != nil {
		return err
	}

	if err := uow.ChunkEmbeddingRepository().DeleteByVersionId(ctx, versionId); err != nil {
		return retryableErr(constant.ErrCodeStorageFailed, err)
	}
	if err := uow.DocumentChunkRepository().DeleteByVersionId(ctx, versionId); err != nil {
		return retryableErr(constant.ErrCodeStorageFailed, err)
	}

	now := time.Now()
	version := e.recipe.PreprocessVersion
	info := e.provider.Info()

	chunkEntities := make([]*entity.DocumentChunk, len(chunks))
	embeddingEntities := make([]*entity.ChunkEmbedding, len(chunks))
	for i, c := range chunks {
		chunkEntities[i] = &entity.DocumentChunk{
			Id:            uuid.New(),
			VersionId:     versionId,
			ChunkIndex:    c.Index,
			TotalChunks:   c.TotalChunks,
			Heading:       c.Heading,
			SourceLocator: c.SourceLocator,
			Content:       c.Content,
			CreatedAt:     now,
		}
		embeddingEntities[i] = &entity.ChunkEmbedding{
			Id:        uuid.New(),
			ChunkId:   chunkEntities[i].Id,
			Embedding: vectors[i],
			Provenance: entity.EmbeddingProvenance{
				EmbeddingProvider: info.Provider,
				EmbeddingModel:    info.Model,
				EmbeddingDim:      info.Dim,
				PreprocessVersion: &version,
				ContentHash:       ingest.ContentHash(c.Content),
				EmbeddedAt:        now,
			},
			CreatedAt: now,
		}
	}

	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunkEntities); err != nil {
		return retryableErr(constant.ErrCodeStorageFailed, err)
	}
	if err := uow.ChunkEmbeddingRepository().CreateBulk(ctx, embeddingEntities); err != nil {
		return retryableErr(constant.ErrCodeStorageFailed, err)
	}
	if err := uow.Commit(); err != nil {
		return retryableErr(constant.ErrCodeStorageFailed, err)
	}
	return nil
}
