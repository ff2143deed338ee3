package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Blob      BlobConfig
	Embedding EmbeddingConfig
	Pipeline  PipelineConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type BlobConfig struct {
	RootDir     string
	Secret      string
	UploadTTL   time.Duration
	DownloadTTL time.Duration
	MaxBytes    int64
}

type EmbeddingConfig struct {
	Provider          string // "gemini", "ollama" or "jina"
	ApiKey            string
	Endpoint          string // ollama only
	Model             string
	Dim               int
	PreprocessVersion string
}

type PipelineConfig struct {
	PollInterval  time.Duration
	RetryBackoff  time.Duration
	SweepInterval time.Duration
	EmbedBatch    int
	ChunkSize     int
	ChunkOverlap  int
	ScrapeTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Blob: BlobConfig{
			RootDir:     getEnv("BLOB_ROOT_DIR", "./data/blobs"),
			Secret:      getEnv("BLOB_TOKEN_SECRET", ""),
			UploadTTL:   getEnvAsDuration("BLOB_UPLOAD_TTL", 15*time.Minute),
			DownloadTTL: getEnvAsDuration("BLOB_DOWNLOAD_TTL", 5*time.Minute),
			MaxBytes:    int64(getEnvAsInt("BLOB_MAX_BYTES", 50*1024*1024)),
		},
		Embedding: EmbeddingConfig{
			Provider:          getEnv("EMBEDDING_PROVIDER", "gemini"),
			ApiKey:            getEnv("EMBEDDING_API_KEY", ""),
			Endpoint:          getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Model:             getEnv("EMBEDDING_MODEL", ""),
			Dim:               getEnvAsInt("EMBEDDING_DIM", 768),
			PreprocessVersion: getEnv("PREPROCESS_VERSION", "v1"),
		},
		Pipeline: PipelineConfig{
			PollInterval:  getEnvAsDuration("JOB_POLL_INTERVAL", 10*time.Second),
			RetryBackoff:  getEnvAsDuration("JOB_RETRY_BACKOFF", 30*time.Second),
			SweepInterval: getEnvAsDuration("DELETE_SWEEP_INTERVAL", time.Minute),
			EmbedBatch:    getEnvAsInt("EMBED_BATCH_SIZE", 16),
			ChunkSize:     getEnvAsInt("CHUNK_SIZE", 1200),
			ChunkOverlap:  getEnvAsInt("CHUNK_OVERLAP", 150),
			ScrapeTimeout: getEnvAsDuration("SCRAPE_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
