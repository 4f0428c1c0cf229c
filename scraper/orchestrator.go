package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"yc_scrooper/config"
	"yc_scrooper/identity"
	"yc_scrooper/models"
	"yc_scrooper/storage"
)

// SessionFactory opens a browsing session. Swapped for a fake in tests.
type SessionFactory func(headless bool) (Session, error)

// Orchestrator sequences one run per filter: open a browsing session, drain
// the listing traversal into the collector, enrich and stream the canonical
// set to the result file, and always close the session.
type Orchestrator struct {
	cfg        *config.Config
	store      *storage.SQLiteStore
	pgStore    *storage.PostgresStore
	uploader   *storage.S3Uploader
	newSession SessionFactory
	paused     bool
}

func NewOrchestrator(cfg *config.Config, store *storage.SQLiteStore) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		newSession: NewPlaywrightSession,
	}
}

// SetWarehouse enables mirroring companies and runs to Postgres.
func (o *Orchestrator) SetWarehouse(pg *storage.PostgresStore) {
	o.pgStore = pg
}

// SetUploader enables archiving finished result files to S3.
func (o *Orchestrator) SetUploader(up *storage.S3Uploader) {
	o.uploader = up
}

// SetSessionFactory overrides how browsing sessions are opened.
func (o *Orchestrator) SetSessionFactory(f SessionFactory) {
	o.newSession = f
}

func (o *Orchestrator) RunAll(ctx context.Context) error {
	if o.paused {
		log.Println("Scraper is paused, skipping run")
		return nil
	}

	var lastErr error
	for filterID := range o.cfg.Filters {
		if err := o.RunFilter(ctx, filterID); err != nil {
			log.Printf("Error running filter %s: %v", filterID, err)
			lastErr = err
		}
	}
	return lastErr
}

func (o *Orchestrator) RunFilter(ctx context.Context, filterID string) error {
	filter, ok := o.cfg.Filters[filterID]
	if !ok {
		return fmt.Errorf("unknown filter: %s", filterID)
	}

	run := &models.ScrapeRun{
		RunUID:    uuid.New(),
		FilterID:  filterID,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	runID, err := o.store.CreateRun(run)
	if err != nil {
		return fmt.Errorf("create run record: %w", err)
	}
	run.ID = runID

	if o.pgStore != nil {
		if err := o.pgStore.CreateScrapeRun(ctx, run); err != nil {
			log.Printf("Warning: failed to mirror run to Postgres: %v", err)
		}
	}

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if run.Status == models.RunStatusRunning {
			run.Status = models.RunStatusCompleted
		}
		o.store.UpdateRun(run)
		o.store.UpdateFilterStats(filterID)
		if o.pgStore != nil {
			o.pgStore.UpdateScrapeRun(ctx, run)
		}
	}()

	o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Starting scrape for %s", filter.Name), filterID)

	session, err := o.newSession(o.cfg.Scraper.Headless)
	if err != nil {
		run.Status = models.RunStatusFailed
		run.ErrorsCount++
		o.log(run.ID, models.LogLevelError, fmt.Sprintf("Session open failed: %v", err), filterID)
		return fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	collector, err := o.runListingPhase(session, filter, run)
	if err != nil {
		run.Status = models.RunStatusFailed
		run.ErrorsCount++
		o.log(run.ID, models.LogLevelError, fmt.Sprintf("Listing phase failed: %v", err), filterID)
		return err
	}

	if err := o.runEnrichmentPhase(ctx, session, filter, collector, run); err != nil {
		run.Status = models.RunStatusFailed
		run.ErrorsCount++
		o.log(run.ID, models.LogLevelError, fmt.Sprintf("Enrichment phase failed: %v", err), filterID)
		return err
	}

	o.log(run.ID, models.LogLevelInfo,
		fmt.Sprintf("Completed: %d raw, %d unique, %d enriched, %d dropped",
			run.CompaniesFound, run.CompaniesUnique, run.CompaniesEnriched, run.CompaniesDropped), filterID)
	return nil
}

// runListingPhase navigates the listing URL and drains the whole traversal
// into a fresh collector. Traversal and enrichment are phased: a failure here
// loses the run's discoveries, nothing is persisted from a broken listing.
func (o *Orchestrator) runListingPhase(session Session, filter *config.FilterConfig, run *models.ScrapeRun) (*Collector, error) {
	page, err := session.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open listing page: %w", err)
	}
	defer page.Close()

	listingURL := filter.ListingURL()
	o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Navigating to %s", listingURL), filter.ID)
	if err := page.Navigate(listingURL); err != nil {
		return nil, fmt.Errorf("navigate to listing: %w", err)
	}

	traversal, err := NewListingTraversal(page, listingURL, filter.Selectors,
		o.cfg.Scraper.ItemTimeout, o.cfg.Scraper.MaxScrollIterations)
	if err != nil {
		return nil, err
	}

	collector := NewCollector()
	if err := traversal.Run(func(c models.Company) {
		c.FilterID = filter.ID
		collector.Add(c)
	}); err != nil {
		return nil, fmt.Errorf("listing traversal: %w", err)
	}

	run.CompaniesFound = collector.Raw()
	run.CompaniesUnique = collector.Len()
	o.log(run.ID, models.LogLevelInfo,
		fmt.Sprintf("Listing done: %d emissions, %d unique companies", collector.Raw(), collector.Len()), filter.ID)
	return collector, nil
}

// runEnrichmentPhase fetches founders for every canonical company, strictly
// one at a time, streaming each success into the result file. Companies whose
// fetch exhausts its retries are dropped from the file and only tracked in
// the store.
func (o *Orchestrator) runEnrichmentPhase(ctx context.Context, session Session, filter *config.FilterConfig, collector *Collector, run *models.ScrapeRun) error {
	if err := os.MkdirAll(o.cfg.ResultsDir, 0755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	resultPath := filepath.Join(o.cfg.ResultsDir, fmt.Sprintf("results_%s.json", filter.ID))
	writer, err := storage.NewResultWriter(resultPath)
	if err != nil {
		return err
	}
	run.ResultPath = resultPath

	fetcher := NewDetailFetcher(session, filter.Selectors,
		o.cfg.Scraper.MaxRetries, o.cfg.Scraper.DetailTimeout)

	for _, company := range collector.Companies() {
		fingerprint := identity.KeyOf(company).Fingerprint()
		if err := o.store.UpsertCompany(fingerprint, company); err != nil {
			log.Printf("Warning: upsert company %q: %v", company.Name, err)
		}

		founders, err := fetcher.FetchFounders(company.URL)
		if err != nil {
			run.CompaniesDropped++
			o.log(run.ID, models.LogLevelWarn,
				fmt.Sprintf("Dropping %q: %v", company.Name, err), filter.ID)
			o.store.MarkExhausted(fingerprint)
			continue
		}

		company.Founders = founders
		if err := writer.Append(company); err != nil {
			writer.Close()
			return fmt.Errorf("write result: %w", err)
		}
		run.CompaniesEnriched++

		o.store.MarkEnriched(fingerprint, founders)
		if o.pgStore != nil {
			if err := o.pgStore.UpsertCompany(ctx, fingerprint, company); err != nil {
				log.Printf("Warning: warehouse upsert %q: %v", company.Name, err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return err
	}
	o.log(run.ID, models.LogLevelInfo,
		fmt.Sprintf("Wrote %d records to %s", writer.Count(), resultPath), filter.ID)

	if o.uploader != nil {
		key, err := o.uploader.UploadResult(ctx, resultPath)
		if err != nil {
			log.Printf("Warning: S3 upload failed: %v", err)
		} else {
			o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Archived result to %s", key), filter.ID)
		}
	}
	return nil
}

func (o *Orchestrator) HandleCommand(cmd *models.Command) error {
	params, err := o.store.ParseCommandParams(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()

	switch cmd.Command {
	case models.CmdScrapeNow:
		return o.RunAll(ctx)
	case models.CmdScrapeFilter:
		if params.Filter != "" {
			return o.RunFilter(ctx, params.Filter)
		}
		return o.RunAll(ctx)
	case models.CmdPause:
		o.paused = true
		log.Println("Scraper paused")
	case models.CmdResume:
		o.paused = false
		log.Println("Scraper resumed")
	default:
		return errors.New("unknown command")
	}

	return nil
}

func (o *Orchestrator) IsPaused() bool {
	return o.paused
}

func (o *Orchestrator) FilterIDs() []string {
	var ids []string
	for id := range o.cfg.Filters {
		ids = append(ids, id)
	}
	return ids
}

func (o *Orchestrator) log(runID int64, level models.LogLevel, message, filterID string) {
	log.Printf("[%s] %s: %s", level, filterID, message)
	o.store.Log(&runID, level, message, filterID)
}
