package mapper

import (
	"time"

	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}
	return &entity.DocumentChunk{
		Id:            c.Id,
		VersionId:     c.VersionId,
		ChunkIndex:    c.ChunkIndex,
		TotalChunks:   c.TotalChunks,
		Heading:       c.Heading,
		SourceLocator: c.SourceLocator,
		Content:       c.Content,
		CreatedAt:     c.CreatedAt,
	}
}

func (m *DocumentChunkMapper) ToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}
	return &model.DocumentChunk{
		Id:            c.Id,
		VersionId:     c.VersionId,
		ChunkIndex:    c.ChunkIndex,
		TotalChunks:   c.TotalChunks,
		Heading:       c.Heading,
		SourceLocator: c.SourceLocator,
		Content:       c.Content,
		CreatedAt:     c.CreatedAt,
	}
}

type ChunkEmbeddingMapper struct{}

func NewChunkEmbeddingMapper() *ChunkEmbeddingMapper {
	return &ChunkEmbeddingMapper{}
}

func (m *ChunkEmbeddingMapper) ToEntity(e *model.ChunkEmbedding) *entity.ChunkEmbedding {
	if e == nil {
		return nil
	}
	return &entity.ChunkEmbedding{
		Id:        e.Id,
		ChunkId:   e.ChunkId,
		Embedding: e.Embedding.Slice(),
		Provenance: entity.EmbeddingProvenance{
			EmbeddingProvider: e.EmbeddingProvider,
			EmbeddingModel:    e.EmbeddingModel,
			EmbeddingDim:      e.EmbeddingDim,
			PreprocessVersion: e.PreprocessVersion,
			ContentHash:       e.ContentHash,
			EmbeddedAt:        e.EmbeddedAt,
		},
		CreatedAt: e.CreatedAt,
	}
}

func (m *ChunkEmbeddingMapper) ToModel(e *entity.ChunkEmbedding) *model.ChunkEmbedding {
	if e == nil {
		return nil
	}
	return &model.ChunkEmbedding{
		Id:                e.Id,
		ChunkId:           e.ChunkId,
		Embedding:         pgvector.NewVector(e.Embedding),
		EmbeddingProvider: e.Provenance.EmbeddingProvider,
		EmbeddingModel:    e.Provenance.EmbeddingModel,
		EmbeddingDim:      e.Provenance.EmbeddingDim,
		PreprocessVersion: e.Provenance.PreprocessVersion,
		ContentHash:       e.Provenance.ContentHash,
		EmbeddedAt:        e.Provenance.EmbeddedAt,
		CreatedAt:         e.CreatedAt,
	}
}

type KnowledgeEntryMapper struct{}

func NewKnowledgeEntryMapper() *KnowledgeEntryMapper {
	return &KnowledgeEntryMapper{}
}

func (m *KnowledgeEntryMapper) ToEntity(k *model.KnowledgeEntry) *entity.KnowledgeEntry {
	if k == nil {
		return nil
	}

	var updatedAt *time.Time
	if !k.UpdatedAt.IsZero() {
		t := k.UpdatedAt
		updatedAt = &t
	}

	return &entity.KnowledgeEntry{
		Id:                k.Id,
		TenantId:          k.TenantId,
		Title:             k.Title,
		Content:           k.Content,
		SourceURL:         k.SourceURL,
		Embedding:         k.Embedding.Slice(),
		EmbeddingProvider: k.EmbeddingProvider,
		EmbeddingModel:    k.EmbeddingModel,
		EmbeddingDim:      k.EmbeddingDim,
		PreprocessVersion: k.PreprocessVersion,
		ContentHash:       k.ContentHash,
		EmbeddedAt:        k.EmbeddedAt,
		CreatedAt:         k.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *KnowledgeEntryMapper) ToModel(k *entity.KnowledgeEntry) *model.KnowledgeEntry {
	if k == nil {
		return nil
	}

	var updatedAt time.Time
	if k.UpdatedAt != nil {
		updatedAt = *k.UpdatedAt
	}

	return &model.KnowledgeEntry{
		Id:                k.Id,
		TenantId:          k.TenantId,
		Title:             k.Title,
		Content:           k.Content,
		SourceURL:         k.SourceURL,
		Embedding:         pgvector.NewVector(k.Embedding),
		EmbeddingProvider: k.EmbeddingProvider,
		EmbeddingModel:    k.EmbeddingModel,
		EmbeddingDim:      k.EmbeddingDim,
		PreprocessVersion: k.PreprocessVersion,
		ContentHash:       k.ContentHash,
		EmbeddedAt:        k.EmbeddedAt,
		CreatedAt:         k.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}
