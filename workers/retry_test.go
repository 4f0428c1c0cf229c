package workers

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yc_scrooper/config"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return data
}

func TestParseFounders_Basic(t *testing.T) {
	w := &RetryWorker{}
	data := loadFixture(t, "company_detail.html")

	founders, err := w.ParseFounders(bytes.NewReader(data), config.DefaultSelectors())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(founders) != 2 {
		t.Fatalf("expected 2 founders (nameless card skipped), got %d", len(founders))
	}
	if founders[0].Name != "Jo Smith" {
		t.Fatalf("unexpected first founder %q", founders[0].Name)
	}
	if len(founders[0].Links) != 2 || founders[0].Links[0] != "https://x.com/jo" {
		t.Fatalf("unexpected links for Jo Smith: %+v", founders[0].Links)
	}
	if founders[1].Name != "Ann Lee" {
		t.Fatalf("unexpected second founder %q", founders[1].Name)
	}
	if founders[1].Links == nil || len(founders[1].Links) != 0 {
		t.Fatalf("expected empty link list for Ann Lee, got %#v", founders[1].Links)
	}
}

func TestParseFounders_NoFounders(t *testing.T) {
	w := &RetryWorker{}
	html := `<html><body><div class="content">Nothing here</div></body></html>`

	if _, err := w.ParseFounders(strings.NewReader(html), config.DefaultSelectors()); err == nil {
		t.Fatal("expected error when no founders extracted")
	}
}

func TestParseFounders_NameWithoutLinksContainer(t *testing.T) {
	w := &RetryWorker{}
	html := `<html><body>
		<div class="ycdc-card"><div class="font-bold">Solo Founder</div></div>
	</body></html>`

	if _, err := w.ParseFounders(strings.NewReader(html), config.DefaultSelectors()); err == nil {
		t.Fatal("card without a links container must not count as a founder")
	}
}
