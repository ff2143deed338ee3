package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentVersion struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId    uuid.UUID `gorm:"type:uuid;not null;index:idx_doc_version,unique"`
	VersionNumber int       `gorm:"not null;index:idx_doc_version,unique"` // monotonic per document, starts at 1
	StorageKey    string    `gorm:"type:varchar(512);not null"`
	ByteSize      int64     `gorm:"default:0"`
	MimeType      string    `gorm:"type:varchar(128)"`
	ContentHash   string    `gorm:"type:varchar(64)"` // backfilled at complete-upload
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (DocumentVersion) TableName() string {
	return "document_versions"
}
