package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VersionId     uuid.UUID `gorm:"type:uuid;not null;index"`
	ChunkIndex    int       `gorm:"not null;default:0"`
	TotalChunks   int       `gorm:"not null;default:0"`
	Heading       string    `gorm:"type:varchar(255)"`
	SourceLocator string    `gorm:"type:varchar(512)"`
	Content       string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
