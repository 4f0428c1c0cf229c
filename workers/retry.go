package workers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"yc_scrooper/config"
	"yc_scrooper/models"
	"yc_scrooper/storage"
)

// RetryWorker re-attempts founder extraction for companies whose browser
// enrichment exhausted its retries, using a plain HTTP fetch instead of the
// browsing session. Successes repair the store (SQLite and, when configured,
// Postgres); finished result files are left alone.
type RetryWorker struct {
	cfg        *config.Config
	store      *storage.SQLiteStore
	pgStore    *storage.PostgresStore
	httpClient *http.Client
	triggerCh  chan struct{}
}

func NewRetryWorker(cfg *config.Config, store *storage.SQLiteStore, pgStore *storage.PostgresStore, client *http.Client) *RetryWorker {
	return &RetryWorker{
		cfg:        cfg,
		store:      store,
		pgStore:    pgStore,
		httpClient: client,
		triggerCh:  make(chan struct{}, 1),
	}
}

// Trigger requests an immediate batch outside the regular interval.
func (w *RetryWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

func (w *RetryWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Retry worker stopping")
			return
		case <-ticker.C:
			w.processBatch(ctx, batchSize)
		case <-w.triggerCh:
			w.processBatch(ctx, batchSize)
		}
	}
}

// Companies past this many total attempts are abandoned for good.
const maxTotalAttempts = 6

func (w *RetryWorker) processBatch(ctx context.Context, batchSize int) {
	companies, err := w.store.ExhaustedCompanies(batchSize, maxTotalAttempts)
	if err != nil {
		log.Printf("Retry: query error: %v", err)
		return
	}
	if len(companies) == 0 {
		return
	}

	log.Printf("Retry: re-attempting %d companies", len(companies))

	for _, c := range companies {
		founders, err := w.Refetch(ctx, c.URL, w.selectorsFor(c.FilterID))
		if err != nil {
			log.Printf("Retry: %s failed: %v", c.URL, err)
			w.store.IncrementEnrichmentAttempts(c.Fingerprint)
			continue
		}

		if err := w.store.MarkEnriched(c.Fingerprint, founders); err != nil {
			log.Printf("Retry: store update for %s: %v", c.Fingerprint, err)
			continue
		}
		if w.pgStore != nil {
			company := &models.Company{Name: c.Name, URL: c.URL, FilterID: c.FilterID, Founders: founders}
			if err := w.pgStore.UpsertCompany(ctx, c.Fingerprint, company); err != nil {
				log.Printf("Retry: warehouse upsert for %s: %v", c.Fingerprint, err)
			}
		}
		log.Printf("Retry: recovered %q (%d founders)", c.Name, len(founders))

		// Rate limit between requests
		time.Sleep(500 * time.Millisecond)
	}
}

func (w *RetryWorker) selectorsFor(filterID string) config.Selectors {
	if f, ok := w.cfg.Filters[filterID]; ok {
		return f.Selectors
	}
	return config.DefaultSelectors()
}

// Refetch downloads the detail page over HTTP and extracts its founders.
func (w *RetryWorker) Refetch(ctx context.Context, pageURL string, sel config.Selectors) ([]models.Founder, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return w.ParseFounders(resp.Body, sel)
}

// ParseFounders extracts founder cards from detail-page HTML with the same
// rules the browser fetcher applies: a card needs a name and a social-links
// container; zero links inside the container is fine. Zero usable founders
// is an error so the company stays queued for retry.
func (w *RetryWorker) ParseFounders(r io.Reader, sel config.Selectors) ([]models.Founder, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var founders []models.Founder
	doc.Find(sel.FounderCard).Each(func(i int, card *goquery.Selection) {
		name := strings.TrimSpace(card.Find(sel.FounderName).First().Text())
		if name == "" {
			return
		}

		linksBox := card.Find(sel.FounderLinks).First()
		if linksBox.Length() == 0 {
			return
		}

		links := []string{}
		linksBox.Find(sel.Anchor).Each(func(_ int, a *goquery.Selection) {
			if href, exists := a.Attr("href"); exists && href != "" {
				links = append(links, href)
			}
		})

		founders = append(founders, models.Founder{Name: name, Links: links})
	})

	if len(founders) == 0 {
		return nil, fmt.Errorf("no founders extracted")
	}
	return founders, nil
}
