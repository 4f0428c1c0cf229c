package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"yc_scrooper/config"
	"yc_scrooper/models"
	"yc_scrooper/scraper"
	"yc_scrooper/storage"
)

// Triggerable allows workers to be kicked manually.
type Triggerable interface {
	Trigger()
}

type Scheduler struct {
	cfg          *config.Config
	orchestrator *scraper.Orchestrator
	store        *storage.SQLiteStore
	cron         *cron.Cron
	ticker       *time.Ticker
	stopCh       chan struct{}

	retryWorker Triggerable
}

func New(cfg *config.Config, orchestrator *scraper.Orchestrator, store *storage.SQLiteStore) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		orchestrator: orchestrator,
		store:        store,
		cron:         cron.New(),
		stopCh:       make(chan struct{}),
	}
}

// SetRetryWorker registers the retry worker for manual triggering.
func (s *Scheduler) SetRetryWorker(w Triggerable) {
	s.retryWorker = w
}

func (s *Scheduler) Start(ctx context.Context) error {
	go s.pollCommands(ctx)

	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			if err := s.orchestrator.RunAll(ctx); err != nil {
				log.Printf("Scheduled run error: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					if err := s.orchestrator.RunAll(ctx); err != nil {
						log.Printf("Scheduled run error: %v", err)
					}
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("No schedule configured, runs happen on command only")
	}

	return nil
}

// pollCommands watches the commands table so external tools can request runs
// or pause the scraper without restarting the daemon.
func (s *Scheduler) pollCommands(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			cmds, err := s.store.PendingCommands()
			if err != nil {
				log.Printf("Command poll error: %v", err)
				continue
			}
			for _, cmd := range cmds {
				log.Printf("Processing command %d: %s", cmd.ID, cmd.Command)
				if err := s.orchestrator.HandleCommand(cmd); err != nil {
					log.Printf("Command %d failed: %v", cmd.ID, err)
				}
				if s.retryWorker != nil && cmd.Command == models.CmdScrapeNow {
					s.retryWorker.Trigger()
				}
				if err := s.store.MarkCommandProcessed(cmd.ID); err != nil {
					log.Printf("Mark command %d processed: %v", cmd.ID, err)
				}
			}
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
	if s.ticker != nil {
		s.ticker.Stop()
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
}
