package mapper

import (
	"encoding/json"
	"time"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/model"

	"gorm.io/datatypes"
)

type IngestionJobMapper struct{}

func NewIngestionJobMapper() *IngestionJobMapper {
	return &IngestionJobMapper{}
}

func (m *IngestionJobMapper) ToEntity(j *model.IngestionJob) *entity.IngestionJob {
	if j == nil {
		return nil
	}

	var updatedAt *time.Time
	if !j.UpdatedAt.IsZero() {
		t := j.UpdatedAt
		updatedAt = &t
	}

	e := &entity.IngestionJob{
		Id:          j.Id,
		TenantId:    j.TenantId,
		Kind:        j.Kind,
		DocumentId:  j.DocumentId,
		VersionId:   j.VersionId,
		Status:      j.Status,
		Stage:       j.Stage,
		Attempts:    j.Attempts,
		MaxAttempts: j.MaxAttempts,
		ErrorCode:   j.ErrorCode,
		LastError:   j.LastError,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   updatedAt,
	}

	// Params is a tagged variant keyed on Kind; unknown kinds keep a nil params.
	if len(j.Params) > 0 {
		switch j.Kind {
		case constant.JobKindFile:
			var p entity.FileJobParams
			if err := json.Unmarshal(j.Params, &p); err == nil {
				e.FileParams = &p
			}
		case constant.JobKindSiteScrape:
			var p entity.SiteScrapeJobParams
			if err := json.Unmarshal(j.Params, &p); err == nil {
				e.ScrapeParams = &p
			}
		}
	}

	if len(j.Metrics) > 0 {
		var metrics map[string]interface{}
		if err := json.Unmarshal(j.Metrics, &metrics); err == nil {
			e.Metrics = metrics
		}
	}

	return e
}

func (m *IngestionJobMapper) ToModel(e *entity.IngestionJob) *model.IngestionJob {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	j := &model.IngestionJob{
		Id:          e.Id,
		TenantId:    e.TenantId,
		Kind:        e.Kind,
		DocumentId:  e.DocumentId,
		VersionId:   e.VersionId,
		Status:      e.Status,
		Stage:       e.Stage,
		Attempts:    e.Attempts,
		MaxAttempts: e.MaxAttempts,
		ErrorCode:   e.ErrorCode,
		LastError:   e.LastError,
		StartedAt:   e.StartedAt,
		CompletedAt: e.CompletedAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   updatedAt,
	}

	switch {
	case e.FileParams != nil:
		if raw, err := json.Marshal(e.FileParams); err == nil {
			j.Params = datatypes.JSON(raw)
		}
	case e.ScrapeParams != nil:
		if raw, err := json.Marshal(e.ScrapeParams); err == nil {
			j.Params = datatypes.JSON(raw)
		}
	}

	if e.Metrics != nil {
		if raw, err := json.Marshal(e.Metrics); err == nil {
			j.Metrics = datatypes.JSON(raw)
		}
	}

	return j
}
