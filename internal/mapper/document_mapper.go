package mapper

import (
	"time"

	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/model"

	"gorm.io/gorm"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:         d.Id,
		TenantId:   d.TenantId,
		Title:      d.Title,
		SourceType: d.SourceType,
		Classification: entity.Classification{
			Audience:       d.Audience,
			ScopeType:      d.ScopeType,
			ScopeId:        d.ScopeId,
			DataClass:      d.DataClass,
			ContainsPii:    d.ContainsPii,
			AuthorityLevel: d.AuthorityLevel,
		},
		Status:            d.Status,
		DeleteRequestedAt: d.DeleteRequestedAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         updatedAt,
		DeletedAt:         deletedAt,
		IsDeleted:         d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Document{
		Id:                d.Id,
		TenantId:          d.TenantId,
		Title:             d.Title,
		SourceType:        d.SourceType,
		Audience:          d.Classification.Audience,
		ScopeType:         d.Classification.ScopeType,
		ScopeId:           d.Classification.ScopeId,
		DataClass:         d.Classification.DataClass,
		ContainsPii:       d.Classification.ContainsPii,
		AuthorityLevel:    d.Classification.AuthorityLevel,
		Status:            d.Status,
		DeleteRequestedAt: d.DeleteRequestedAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         updatedAt,
		DeletedAt:         deletedAt,
	}
}

type DocumentVersionMapper struct{}

func NewDocumentVersionMapper() *DocumentVersionMapper {
	return &DocumentVersionMapper{}
}

func (m *DocumentVersionMapper) ToEntity(v *model.DocumentVersion) *entity.DocumentVersion {
	if v == nil {
		return nil
	}
	return &entity.DocumentVersion{
		Id:            v.Id,
		DocumentId:    v.DocumentId,
		VersionNumber: v.VersionNumber,
		StorageKey:    v.StorageKey,
		ByteSize:      v.ByteSize,
		MimeType:      v.MimeType,
		ContentHash:   v.ContentHash,
		CreatedAt:     v.CreatedAt,
	}
}

func (m *DocumentVersionMapper) ToModel(v *entity.DocumentVersion) *model.DocumentVersion {
	if v == nil {
		return nil
	}
	return &model.DocumentVersion{
		Id:            v.Id,
		DocumentId:    v.DocumentId,
		VersionNumber: v.VersionNumber,
		StorageKey:    v.StorageKey,
		ByteSize:      v.ByteSize,
		MimeType:      v.MimeType,
		ContentHash:   v.ContentHash,
		CreatedAt:     v.CreatedAt,
	}
}
