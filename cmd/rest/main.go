package main

import (
	"context"
	"log"

	"hebelki-knowledge-be/internal/bootstrap"
	"hebelki-knowledge-be/internal/config"
	"hebelki-knowledge-be/internal/server"
	"hebelki-knowledge-be/internal/tracer"
	"hebelki-knowledge-be/pkg/database"
)

func main() {
	// 1. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 2. Load Configuration
	cfg := config.Load()

	// 3. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 5. Run the ingestion engine alongside the API. Wake-ups travel over an
	// in-process channel, so the subscriber has to live in this binary; claims
	// are compare-and-swap, so a separate worker binary can run concurrently.
	go func() {
		log.Println("Starting in-process ingestion consumer")
		if err := container.WorkerEngine.Run(context.Background()); err != nil {
			log.Printf("[WARN] Ingestion consumer stopped: %v", err)
		}
	}()

	// 6. Initialize Server
	srv := server.New(cfg, container)

	// 7. Run Server
	log.Fatal(srv.Run())
}
