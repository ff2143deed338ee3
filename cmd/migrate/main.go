package main

import (
	"log"
	"os"

	"hebelki-knowledge-be/internal/model"
	"hebelki-knowledge-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: extensions GORM AutoMigrate doesn't handle
	log.Println("Step 1: Setting up extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate all models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.Document{},
		&model.DocumentVersion{},
		&model.IngestionJob{},
		&model.DocumentChunk{},
		&model.ChunkEmbedding{},
		&model.KnowledgeEntry{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: indexes the pipeline queries depend on
	log.Println("Step 3: Creating indexes...")

	postMigrationSQL := []string{
		// worker claim scan
		`CREATE INDEX IF NOT EXISTS idx_ingestion_jobs_claimable ON ingestion_jobs (status, stage, updated_at);`,
		// tenant-scoped lookups
		`CREATE INDEX IF NOT EXISTS idx_documents_tenant ON documents (tenant_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_ingestion_jobs_tenant ON ingestion_jobs (tenant_id);`,
		// delete sweeper
		`CREATE INDEX IF NOT EXISTS idx_documents_delete_pending ON documents (status) WHERE status = 'deleted_pending';`,
		// scrape upsert key
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_knowledge_entries_tenant_source ON knowledge_entries (tenant_id, source_url) WHERE source_url <> '';`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed via GORM.")
}
