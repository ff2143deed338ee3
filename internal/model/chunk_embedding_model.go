package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type ChunkEmbedding struct {
	Id                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChunkId           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Embedding         pgvector.Vector `gorm:"type:vector(768)"`
	EmbeddingProvider string          `gorm:"type:varchar(64);not null"`
	EmbeddingModel    string          `gorm:"type:varchar(128);not null"`
	EmbeddingDim      int             `gorm:"not null;default:768"`
	PreprocessVersion *string         `gorm:"type:varchar(32);index"`
	ContentHash       string          `gorm:"type:varchar(64);not null"`
	EmbeddedAt        time.Time       `gorm:"not null"`
	CreatedAt         time.Time       `gorm:"autoCreateTime"`
}

func (ChunkEmbedding) TableName() string {
	return "chunk_embeddings"
}
