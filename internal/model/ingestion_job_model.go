package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type IngestionJob struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Kind        string         `gorm:"type:varchar(24);not null;default:'file'"`
	DocumentId  *uuid.UUID     `gorm:"type:uuid;index"`
	VersionId   *uuid.UUID     `gorm:"type:uuid;index"`
	Status      string         `gorm:"type:varchar(24);not null;default:'queued';index"`
	Stage       string         `gorm:"type:varchar(24);not null;default:'pending_upload'"`
	Attempts    int            `gorm:"not null;default:0"`
	MaxAttempts int            `gorm:"not null;default:3"`
	ErrorCode   string         `gorm:"type:varchar(48)"`
	LastError   string         `gorm:"type:text"`
	Params      datatypes.JSON `gorm:"type:jsonb"`
	Metrics     datatypes.JSON `gorm:"type:jsonb"`
	StartedAt   *time.Time     `gorm:""`
	CompletedAt *time.Time     `gorm:""`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (IngestionJob) TableName() string {
	return "ingestion_jobs"
}
