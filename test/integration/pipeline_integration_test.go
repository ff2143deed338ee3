package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/entity"
	"hebelki-knowledge-be/internal/repository/specification"
	"hebelki-knowledge-be/internal/repository/unitofwork"
	"hebelki-knowledge-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.IngestionJobRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Check Chunk Embedding Repository", func(t *testing.T) {
		_, stale, err := uow.ChunkEmbeddingRepository().CountByPreprocess(context.Background(), "v1", nil)
		assert.NoError(t, err)
		t.Logf("Stale chunk embeddings: %d", stale)
	})
}

// TestJobClaimContention verifies the compare-and-set claim: one winner, one
// attempt increment, losers walk away.
func TestJobClaimContention(t *testing.T) {
	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(ctx)
	jobs := uow.IngestionJobRepository()

	tenantId := uuid.New()
	job := &entity.IngestionJob{
		Id:          uuid.New(),
		TenantId:    tenantId,
		Kind:        constant.JobKindSiteScrape,
		Status:      constant.JobStatusQueued,
		Stage:       constant.StageReady,
		MaxAttempts: constant.DefaultMaxAttempts,
		ScrapeParams: &entity.SiteScrapeJobParams{
			URL:      "https://example.com",
			MaxPages: 1,
		},
	}
	require.NoError(t, jobs.Create(ctx, job))
	defer gormDB.Exec("DELETE FROM ingestion_jobs WHERE id = ?", job.Id)

	first, err := jobs.Claim(ctx, job.Id, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, first, "first claim should win")

	second, err := jobs.Claim(ctx, job.Id, 30*time.Second)
	require.NoError(t, err)
	assert.False(t, second, "second claim must lose while the job is processing")

	claimed, err := jobs.FindOne(ctx, specification.ByID{ID: job.Id})
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, constant.JobStatusProcessing, claimed.Status)
	assert.Equal(t, constant.StageDownloading, claimed.Stage)
	assert.Equal(t, 1, claimed.Attempts)
	assert.NotNil(t, claimed.StartedAt)
}
