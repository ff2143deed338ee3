package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"hebelki-knowledge-be/internal/bootstrap"
	"hebelki-knowledge-be/internal/config"
	"hebelki-knowledge-be/pkg/database"
	"hebelki-knowledge-be/pkg/events"
	pktNats "hebelki-knowledge-be/pkg/nats"
)

// The worker binary runs the ingestion engine and the delete sweeper. It can
// run alongside the REST binary or on its own; job claims are
// compare-and-set, so multiple workers never double-process a job.
func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Audit trail: every pipeline event lands in the worker log. Downstream
	// systems attach their own durable consumers to the same stream.
	if natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL); err != nil {
		log.Printf("[WARN] Failed to connect to NATS subscriber: %v", err)
	} else {
		defer natsSub.Close()
		err := natsSub.Subscribe("events.>", "pipeline-audit", func(ctx context.Context, event events.Event) error {
			log.Printf("Event %s: %v", event.EventType(), event.Payload())
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Failed to subscribe to pipeline events: %v", err)
		}
	}

	go container.SweeperService.Run(ctx, cfg.Pipeline.SweepInterval)

	log.Println("Worker: starting ingestion engine...")
	if err := container.WorkerEngine.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Worker engine stopped: %v", err)
	}
	log.Println("Worker: shutdown complete")
}
