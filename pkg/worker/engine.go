// Package worker runs the ingestion pipeline: it claims ready jobs, walks
// them through download, parse, chunk, embed and cleanup, and finalizes them
// with retry or terminal failure semantics.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/dto"
	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/pkg/logger"
	"hebelki-knowledge-be/internal/repository/specification"
	"hebelki-knowledge-be/internal/repository/unitofwork"
	"hebelki-knowledge-be/pkg/blob"
	"hebelki-knowledge-be/pkg/chunker"
	"hebelki-knowledge-be/pkg/embedding"
	"hebelki-knowledge-be/pkg/events"
	"hebelki-knowledge-be/pkg/extract"
	"hebelki-knowledge-be/pkg/ingest"
	pktNats "hebelki-knowledge-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Config tunes the engine loops.
type Config struct {
	PollInterval  time.Duration
	RetryBackoff  time.Duration
	EmbedBatch    int
	ScrapeTimeout time.Duration
	ClaimLimit    int
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 30 * time.Second
	}
	if cfg.EmbedBatch <= 0 {
		cfg.EmbedBatch = 16
	}
	if cfg.ScrapeTimeout <= 0 {
		cfg.ScrapeTimeout = 30 * time.Second
	}
	if cfg.ClaimLimit <= 0 {
		cfg.ClaimLimit = 10
	}
	return cfg
}

type Engine struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	blobGateway    blob.Gateway
	extractor      extract.Extractor
	chunker        chunker.Chunker
	provider       embedding.Provider
	recipe         ingest.Recipe
	scraper        Scraper
	eventPublisher *pktNats.Publisher
	log            logger.ILogger
	cfg            Config
}

func NewEngine(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	blobGateway blob.Gateway,
	extractor extract.Extractor,
	chunker chunker.Chunker,
	provider embedding.Provider,
	recipe ingest.Recipe,
	scraper Scraper,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	cfg Config,
) *Engine {
	return &Engine{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		blobGateway:    blobGateway,
		extractor:      extractor,
		chunker:        chunker,
		provider:       provider,
		recipe:         recipe,
		scraper:        scraper,
		eventPublisher: eventPublisher,
		log:            log,
		cfg:            cfg.withDefaults(),
	}
}

// Run starts the wake-up subscriber and the poll loop. Blocks until ctx is
// done. Wake-ups make fresh jobs start fast; the poll loop is the source of
// truth and also recovers retry_ready jobs whose wake-up is long gone.
func (e *Engine) Run(ctx context.Context) error {
	messages, err := e.pubSub.Subscribe(ctx, e.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			e.handleWakeUp(ctx, msg)
		}
	}()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.pollOnce(ctx)
		}
	}
}

func (e *Engine) handleWakeUp(ctx context.Context, msg *message.Message) {
	var payload dto.PublishJobReadyMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		e.log.Error("worker", "Failed to unmarshal wake-up", map[string]interface{}{"error": err.Error()})
		msg.Ack() // poison message, never retry
		return
	}
	e.ProcessJob(ctx, payload.JobId)
	msg.Ack()
}

func (e *Engine) pollOnce(ctx context.Context) {
	uow := e.uowFactory.NewUnitOfWork(ctx)
	jobs, err := uow.IngestionJobRepository().FindClaimable(ctx, e.cfg.RetryBackoff, e.cfg.ClaimLimit)
	if err != nil {
		e.log.Error("worker", "Failed to list claimable jobs", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, job := range jobs {
		e.ProcessJob(ctx, job.Id)
	}
}

// ProcessJob claims and executes one job end to end. Safe to call for any id:
// losing the claim race is a silent no-op.
func (e *Engine) ProcessJob(ctx context.Context, jobId uuid.UUID) {
	uow := e.uowFactory.NewUnitOfWork(ctx)
	jobs := uow.IngestionJobRepository()

	claimed, err := jobs.Claim(ctx, jobId, e.cfg.RetryBackoff)
	if err != nil {
		e.log.Error("worker", "Claim failed", map[string]interface{}{"job_id": jobId.String(), "error": err.Error()})
		return
	}
	if !claimed {
		return
	}

	job, err := jobs.FindOne(ctx, specification.ByID{ID: jobId})
	if err != nil || job == nil {
		e.log.Error("worker", "Claimed job vanished", map[string]interface{}{"job_id": jobId.String()})
		return
	}

	e.log.Info("worker", "Job claimed", map[string]interface{}{
		"job_id":  job.Id.String(),
		"kind":    job.Kind,
		"attempt": job.Attempts,
	})

	start := time.Now()
	var metrics map[string]interface{}
	switch job.Kind {
	case constant.JobKindFile:
		metrics, err = e.runFileJob(ctx, uow, job)
	case constant.JobKindSiteScrape:
		metrics, err = e.runScrapeJob(ctx, uow, job)
	default:
		err = terminalErr(constant.ErrCodeUnsupportedContent, errors.New("unknown job kind "+job.Kind))
	}

	if errors.Is(err, errAborted) {
		e.log.Info("worker", "Job taken over, walking away", map[string]interface{}{"job_id": job.Id.String()})
		return
	}

	if metrics == nil {
		metrics = map[string]interface{}{}
	}
	metrics["duration_ms"] = time.Since(start).Milliseconds()

	e.finalize(ctx, uow, job, metrics, err)
}

// checkOwnership aborts when another actor moved the job out of processing
// (classification change or delete cancels in-flight jobs).
func (e *Engine) checkOwnership(ctx context.Context, uow unitofwork.UnitOfWork, jobId uuid.UUID) error {
	current, err := uow.IngestionJobRepository().FindOne(ctx, specification.ByID{ID: jobId})
	if err != nil {
		return retryableErr(constant.ErrCodeStorageFailed, err)
	}
	if current == nil || current.Status != constant.JobStatusProcessing {
		return errAborted
	}
	return nil
}

func (e *Engine) enterStage(ctx context.Context, uow unitofwork.UnitOfWork, job *entity.IngestionJob, stage string) error {
	if err := e.checkOwnership(ctx, uow, job.Id); err != nil {
		return err
	}
	if err := uow.IngestionJobRepository().UpdateStage(ctx, job.Id, stage); err != nil {
		return retryableErr(constant.ErrCodeStorageFailed, err)
	}
	job.Stage = stage
	return nil
}

func (e *Engine) finalize(ctx context.Context, uow unitofwork.UnitOfWork, job *entity.IngestionJob, metrics map[string]interface{}, runErr error) {
	// refresh attempts/state before writing the outcome
	current, err := uow.IngestionJobRepository().FindOne(ctx, specification.ByID{ID: job.Id})
	if err != nil || current == nil {
		e.log.Error("worker", "Failed to reload job for finalize", map[string]interface{}{"job_id": job.Id.String()})
		return
	}
	if current.Status != constant.JobStatusProcessing {
		// cancelled while we were finishing; the canceller's word stands
		return
	}
	job = current
	job.Metrics = metrics

	now := time.Now()
	if runErr == nil {
		job.Status = constant.JobStatusDone
		job.ErrorCode = ""
		job.LastError = ""
		job.CompletedAt = &now
	} else {
		var stageErr *stageError
		if !errors.As(runErr, &stageErr) {
			stageErr = retryableErr(constant.ErrCodeStorageFailed, runErr)
		}
		job.ErrorCode = stageErr.code
		job.LastError = stageErr.err.Error()

		if stageErr.terminal || job.Attempts >= job.MaxAttempts {
			job.Status = constant.JobStatusFailed
			job.CompletedAt = &now
		} else {
			job.Status = constant.JobStatusRetryReady
		}
	}

	if err := uow.IngestionJobRepository().Update(ctx, job); err != nil {
		e.log.Error("worker", "Failed to finalize job", map[string]interface{}{
			"job_id": job.Id.String(),
			"error":  err.Error(),
		})
		return
	}

	e.log.Info("worker", "Job finalized", map[string]interface{}{
		"job_id":     job.Id.String(),
		"status":     job.Status,
		"error_code": job.ErrorCode,
	})

	if constant.IsTerminalJobStatus(job.Status) && e.eventPublisher != nil {
		evt := events.NewIngestionJobCompleted(job.Id, job.Status, job.ErrorCode)
		if err := e.eventPublisher.Publish(ctx, evt); err != nil {
			e.log.Warn("worker", "Failed to publish INGESTION_JOB_COMPLETED", map[string]interface{}{"error": err.Error()})
		}
	}
}
