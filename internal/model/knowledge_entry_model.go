package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// KnowledgeEntry is the non-document-derived retrievable unit (scraped pages,
// manually authored text). Carries the same provenance fields as ChunkEmbedding
// so reconciliation treats both uniformly.
type KnowledgeEntry struct {
	Id                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title             string          `gorm:"type:varchar(255);not null"`
	Content           string          `gorm:"type:text"`
	SourceURL         string          `gorm:"type:varchar(1024)"`
	Embedding         pgvector.Vector `gorm:"type:vector(768)"`
	EmbeddingProvider string          `gorm:"type:varchar(64)"`
	EmbeddingModel    string          `gorm:"type:varchar(128)"`
	EmbeddingDim      int             `gorm:"default:0"`
	PreprocessVersion *string         `gorm:"type:varchar(32);index"`
	ContentHash       string          `gorm:"type:varchar(64)"`
	EmbeddedAt        *time.Time      `gorm:""`
	CreatedAt         time.Time       `gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime"`
	DeletedAt         gorm.DeletedAt  `gorm:"index"`
}

func (KnowledgeEntry) TableName() string {
	return "knowledge_entries"
}
