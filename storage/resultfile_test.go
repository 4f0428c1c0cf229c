package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"yc_scrooper/models"
)

func tempResultPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "results_test.json")
}

func TestResultWriter_ValidJSON(t *testing.T) {
	path := tempResultPath(t)
	w, err := NewResultWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	companies := []*models.Company{
		{Name: "A", Location: "LocX", URL: "link1", Founders: []models.Founder{{Name: "Jo", Links: []string{"https://x.com/jo"}}}},
		{Name: "B", Location: "LocY", URL: "link2", Founders: []models.Founder{{Name: "Ann", Links: []string{}}}},
	}
	for _, c := range companies {
		if err := w.Append(c); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got []models.Company
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, data)
	}
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Fatalf("unexpected records: %+v", got)
	}
	if got[1].Founders[0].Links == nil || len(got[1].Founders[0].Links) != 0 {
		t.Fatalf("empty links must round-trip as an empty list: %#v", got[1].Founders[0].Links)
	}
}

func TestResultWriter_EmptySet(t *testing.T) {
	path := tempResultPath(t)
	w, err := NewResultWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, _ := os.ReadFile(path)
	var got []models.Company
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("empty output is not valid JSON: %v\n%s", err, data)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty array, got %+v", got)
	}
}

// Streaming property: records already appended survive a crash (the writer is
// never closed). Completing the array by hand must yield exactly those
// records.
func TestResultWriter_StreamsEachRecord(t *testing.T) {
	path := tempResultPath(t)
	w, err := NewResultWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if err := w.Append(&models.Company{Name: "A", Founders: []models.Founder{}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Append(&models.Company{Name: "B", Founders: []models.Founder{}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Simulated crash: no Close.

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got []models.Company
	if err := json.Unmarshal(append(data, []byte("\n]")...), &got); err != nil {
		t.Fatalf("partial output not recoverable: %v\n%s", err, data)
	}
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Fatalf("expected the 2 appended records, got %+v", got)
	}
	if w.Count() != 2 {
		t.Fatalf("expected count 2, got %d", w.Count())
	}
}
