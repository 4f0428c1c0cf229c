package scraper

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"yc_scrooper/config"
	"yc_scrooper/models"
	"yc_scrooper/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ResultsDir: t.TempDir(),
		Scraper: config.ScraperConfig{
			MaxRetries:    3,
			DetailTimeout: time.Second,
			ItemTimeout:   time.Second,
		},
		Filters: map[string]*config.FilterConfig{
			"w25_test": {
				ID:        "w25_test",
				Name:      "W25 test",
				BaseURL:   "https://www.ycombinator.com/companies",
				Batch:     "W25",
				Selectors: testSelectors,
			},
		},
	}
}

func testStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// End to end: two exact-duplicate emissions of A plus one of B. A enriches
// with one founder, B exhausts its retries. The result file must contain
// exactly one record.
func TestRunFilter_EndToEnd(t *testing.T) {
	listing := &fakeListingPage{
		heights: []float64{100, 100},
		snapshots: [][]Element{{
			listingItem("A", "LocX", "/companies/a"),
			listingItem("A", "LocX", "/companies/a"),
			listingItem("B", "LocY", "/companies/b"),
		}},
	}
	session := &fakeSession{pages: []Page{
		listing,
		&fakeDetailPage{cards: []Element{founderCard("Jo", "https://x.com/jo")}},
		&fakeDetailPage{waitErr: errTimeout},
		&fakeDetailPage{waitErr: errTimeout},
		&fakeDetailPage{waitErr: errTimeout},
	}}

	cfg := testConfig(t)
	o := NewOrchestrator(cfg, testStore(t))
	o.SetSessionFactory(func(bool) (Session, error) { return session, nil })

	if err := o.RunFilter(context.Background(), "w25_test"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !session.closed {
		t.Fatal("browsing session must be closed after the run")
	}
	if !listing.closed {
		t.Fatal("listing page must be closed")
	}

	data, err := os.ReadFile(filepath.Join(cfg.ResultsDir, "results_w25_test.json"))
	if err != nil {
		t.Fatalf("read result file: %v", err)
	}

	var results []models.Company
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatalf("result file is not valid JSON: %v\n%s", err, data)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(results))
	}
	if results[0].Name != "A" || results[0].Location != "LocX" {
		t.Fatalf("unexpected record: %+v", results[0])
	}
	if len(results[0].Founders) != 1 || results[0].Founders[0].Name != "Jo" {
		t.Fatalf("unexpected founders: %+v", results[0].Founders)
	}
	if results[0].Founders[0].Links[0] != "https://x.com/jo" {
		t.Fatalf("unexpected founder links: %+v", results[0].Founders[0].Links)
	}
}

func TestRunFilter_SessionOpenFailure(t *testing.T) {
	cfg := testConfig(t)
	o := NewOrchestrator(cfg, testStore(t))
	o.SetSessionFactory(func(bool) (Session, error) { return nil, errTimeout })

	if err := o.RunFilter(context.Background(), "w25_test"); err == nil {
		t.Fatal("expected session-open failure to abort the run")
	}
}

func TestRunFilter_ListingFailureAborts(t *testing.T) {
	session := &fakeSession{pages: []Page{
		&fakeListingPage{heights: []float64{100}, waitErr: errTimeout},
	}}

	cfg := testConfig(t)
	o := NewOrchestrator(cfg, testStore(t))
	o.SetSessionFactory(func(bool) (Session, error) { return session, nil })

	if err := o.RunFilter(context.Background(), "w25_test"); err == nil {
		t.Fatal("expected listing failure to abort the run")
	}
	if !session.closed {
		t.Fatal("session must be closed even when the listing phase fails")
	}
	// No result file is written for an aborted listing phase.
	if _, err := os.Stat(filepath.Join(cfg.ResultsDir, "results_w25_test.json")); !os.IsNotExist(err) {
		t.Fatal("aborted run must not leave a result file")
	}
}

func TestRunFilter_UnknownFilter(t *testing.T) {
	o := NewOrchestrator(testConfig(t), testStore(t))
	if err := o.RunFilter(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown filter")
	}
}
