package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yc_scrooper/config"
	"yc_scrooper/httputil"
	"yc_scrooper/logging"
	"yc_scrooper/scheduler"
	"yc_scrooper/scraper"
	"yc_scrooper/storage"
	"yc_scrooper/workers"
)

var (
	scrapeNow  = flag.Bool("scrape", false, "Run scrape once and exit")
	filterFlag = flag.String("filter", "", "Limit -scrape to a single filter id")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("scrooper.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting yc_scrooper...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if len(cfg.Filters) == 0 {
		log.Fatal("No filter configs found (FILTERS_DIR)")
	}

	log.Printf("Loaded %d filter configs", len(cfg.Filters))
	for id, filter := range cfg.Filters {
		log.Printf("  - %s (%s)", filter.Name, id)
	}

	ctx := context.Background()

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer store.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	orchestrator := scraper.NewOrchestrator(cfg, store)

	var pgStore *storage.PostgresStore
	if cfg.DatabaseURL != "" {
		pgStore, err = storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		orchestrator.SetWarehouse(pgStore)
		log.Println("Postgres warehouse connected")
	}

	if cfg.S3.Bucket != "" {
		uploader, err := storage.NewS3Uploader(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			log.Fatalf("Failed to set up S3 uploader: %v", err)
		}
		orchestrator.SetUploader(uploader)
		log.Printf("S3 archiving to bucket %s", cfg.S3.Bucket)
	}

	if *scrapeNow {
		if *filterFlag != "" {
			log.Printf("Running scrape for filter %s...", *filterFlag)
			if err := orchestrator.RunFilter(ctx, *filterFlag); err != nil {
				log.Fatalf("Scrape failed: %v", err)
			}
		} else {
			log.Println("Running scrape...")
			if err := orchestrator.RunAll(ctx); err != nil {
				log.Fatalf("Scrape failed: %v", err)
			}
		}
		log.Println("Scrape complete!")
		return
	}

	// Daemon mode
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clients := httputil.NewClients(&cfg.Proxy)
	retryWorker := workers.NewRetryWorker(cfg, store, pgStore, clients.Scraping)
	go retryWorker.Run(ctx, 10, 5*time.Minute)
	log.Println("Retry worker started")

	sched := scheduler.New(cfg, orchestrator, store)
	sched.SetRetryWorker(retryWorker)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}
