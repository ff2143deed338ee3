package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId          uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title             string         `gorm:"type:varchar(255);not null"`
	SourceType        string         `gorm:"type:varchar(32);not null;default:'file'"`
	Audience          string         `gorm:"type:varchar(16);not null;default:'internal'"`
	ScopeType         string         `gorm:"type:varchar(16);not null;default:'global'"`
	ScopeId           *uuid.UUID     `gorm:"type:uuid"`
	DataClass         string         `gorm:"type:varchar(16);not null;default:'knowledge';index"`
	ContainsPii       bool           `gorm:"not null;default:false"`
	AuthorityLevel    string         `gorm:"type:varchar(16);not null;default:'normal'"`
	Status            string         `gorm:"type:varchar(24);not null;default:'active';index"`
	DeleteRequestedAt *time.Time     `gorm:""`
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
