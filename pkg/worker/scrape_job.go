package worker

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/repository/unitofwork"
	"hebelki-knowledge-be/pkg/ingest"

	"github.com/google/uuid"
)

// runScrapeJob fetches a single page, extracts its text and upserts one
// knowledge entry keyed by (tenant, source URL). Re-running replaces the
// previous entry for the same page.
func (e *Engine) runScrapeJob(ctx context.Context, uow unitofwork.UnitOfWork, job *entity.IngestionJob) (map[string]interface{}, error) {
	if job.ScrapeParams == nil || job.ScrapeParams.URL == "" {
		return nil, terminalErr(constant.ErrCodeUnsupportedContent, errors.New("scrape job without url"))
	}
	url := job.ScrapeParams.URL

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.ScrapeTimeout)
	defer cancel()
	body, contentType, err := e.scraper.FetchPage(fetchCtx, url)
	if err != nil {
		return nil, retryableErr(constant.ErrCodeScrapeFailed, err)
	}
	if contentType == "" {
		contentType = "text/html"
	}

	if err := e.enterStage(ctx, uow, job, constant.StageParsing); err != nil {
		return nil, err
	}
	text, err := e.extractor.Extract(ctx, bytes.NewReader(body), contentType)
	if err != nil {
		return nil, classifyExtractErr(err)
	}
	normalized := ingest.NormalizeText(text)
	if normalized == "" {
		return nil, terminalErr(constant.ErrCodeEmptyContent, errors.New("page has no text content"))
	}

	title := pageTitle(body)
	if title == "" {
		title = url
	}

	if err := e.enterStage(ctx, uow, job, constant.StageEmbedding); err != nil {
		return nil, err
	}
	vectors, err := e.provider.Embed(ctx, []string{ingest.EmbedText(title, normalized)})
	if err != nil {
		return nil, retryableErr(constant.ErrCodeEmbedFailed, err)
	}
	if len(vectors) != 1 {
		return nil, retryableErr(constant.ErrCodeEmbedFailed, errors.New("provider returned wrong vector count"))
	}

	if err := e.enterStage(ctx, uow, job, constant.StageCleanup); err != nil {
		return nil, err
	}
	now := time.Now()
	info := e.provider.Info()
	preprocess := e.recipe.PreprocessVersion
	entry := &entity.KnowledgeEntry{
		Id:                uuid.New(),
		TenantId:          job.TenantId,
		Title:             title,
		Content:           normalized,
		SourceURL:         url,
		Embedding:         vectors[0],
		EmbeddingProvider: info.Provider,
		EmbeddingModel:    info.Model,
		EmbeddingDim:      info.Dim,
		PreprocessVersion: &preprocess,
		ContentHash:       ingest.ContentHash(normalized),
		EmbeddedAt:        &now,
		CreatedAt:         now,
	}
	if err := uow.KnowledgeEntryRepository().UpsertBySourceURL(ctx, entry); err != nil {
		return nil, retryableErr(constant.ErrCodeStorageFailed, err)
	}

	return map[string]interface{}{
		"pages": 1,
		"bytes": len(body),
	}, nil
}

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

func pageTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(strings.Fields(string(m[1])), " "))
}
