package bootstrap

import (
	"context"
	"log"

	"hebelki-knowledge-be/internal/config"
	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/controller"
	"hebelki-knowledge-be/internal/pkg/logger"
	"hebelki-knowledge-be/internal/repository/unitofwork"
	"hebelki-knowledge-be/internal/service"
	"hebelki-knowledge-be/pkg/blob"
	"hebelki-knowledge-be/pkg/chunker"
	"hebelki-knowledge-be/pkg/embedding"
	"hebelki-knowledge-be/pkg/extract"
	"hebelki-knowledge-be/pkg/ingest"
	pktNats "hebelki-knowledge-be/pkg/nats"
	"hebelki-knowledge-be/pkg/worker"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// JobReadyTopic is the internal wake-up channel between the API services and
// the ingestion worker.
const JobReadyTopic = "ingestion.job.ready"

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	JobController      controller.IJobController
	AdminController    controller.IAdminController
	BlobController     controller.IBlobController

	// Background services (exposed for main.go to run)
	WorkerEngine   *worker.Engine
	SweeperService service.ISweeperService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Blob storage
	blobGateway, err := blob.NewLocalGateway(
		cfg.Blob.RootDir,
		cfg.App.BaseURL,
		[]byte(cfg.Blob.Secret),
		cfg.Blob.UploadTTL,
		cfg.Blob.DownloadTTL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize blob gateway: %v", err)
	}

	// 4. Embedding provider
	provider, err := embedding.NewProvider(
		cfg.Embedding.Provider,
		cfg.Embedding.ApiKey,
		cfg.Embedding.Endpoint,
		cfg.Embedding.Model,
		cfg.Embedding.Dim,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize embedding provider: %v", err)
	}
	info := provider.Info()
	log.Printf("[INFO] Using embedding provider: %s (%s, dim=%d)", info.Provider, info.Model, info.Dim)

	recipe := ingest.Recipe{
		Provider:          info.Provider,
		Model:             info.Model,
		Dim:               info.Dim,
		PreprocessVersion: cfg.Embedding.PreprocessVersion,
	}

	// 5. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 6. Services
	publisherService := service.NewPublisherService(JobReadyTopic, pubSub)
	uploadService := service.NewUploadService(uowFactory, blobGateway, publisherService, cfg.Blob.MaxBytes)
	documentService := service.NewDocumentService(uowFactory, publisherService)
	jobService := service.NewJobService(uowFactory, publisherService)
	reconcileService := service.NewReconcileService(
		uowFactory,
		provider,
		recipe,
		constant.LegacyPreprocessVersions,
		rdb,
		natsPub,
		sysLogger,
	)
	sweeperService := service.NewSweeperService(uowFactory, blobGateway, natsPub, sysLogger)

	// 7. Ingestion worker
	engine := worker.NewEngine(
		pubSub,
		JobReadyTopic,
		uowFactory,
		blobGateway,
		extract.New(),
		chunker.NewWithSize(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap),
		provider,
		recipe,
		worker.NewHTTPScraper(cfg.Pipeline.ScrapeTimeout),
		natsPub,
		sysLogger,
		worker.Config{
			PollInterval:  cfg.Pipeline.PollInterval,
			RetryBackoff:  cfg.Pipeline.RetryBackoff,
			EmbedBatch:    cfg.Pipeline.EmbedBatch,
			ScrapeTimeout: cfg.Pipeline.ScrapeTimeout,
		},
	)

	// 8. Controllers
	return &Container{
		DocumentController: controller.NewDocumentController(uploadService, documentService),
		JobController:      controller.NewJobController(jobService),
		AdminController:    controller.NewAdminController(reconcileService),
		BlobController:     controller.NewBlobController(blobGateway),

		WorkerEngine:   engine,
		SweeperService: sweeperService,
	}
}
