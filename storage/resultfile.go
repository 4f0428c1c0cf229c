package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"yc_scrooper/models"
)

// ResultWriter streams enriched companies to a JSON array on disk. Records
// are flushed one by one so a crash partway through enrichment leaves every
// record written so far readable. The array is emitted with proper
// separators; the file is valid JSON once Close writes the closing bracket.
type ResultWriter struct {
	file  *os.File
	path  string
	count int
}

func NewResultWriter(path string) (*ResultWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create result file: %w", err)
	}
	if _, err := f.WriteString("[\n"); err != nil {
		f.Close()
		return nil, fmt.Errorf("write result header: %w", err)
	}
	return &ResultWriter{file: f, path: path}, nil
}

// Append serializes one enriched company and syncs it to disk immediately.
func (w *ResultWriter) Append(company *models.Company) error {
	data, err := json.Marshal(company)
	if err != nil {
		return fmt.Errorf("marshal company %q: %w", company.Name, err)
	}

	if w.count > 0 {
		if _, err := w.file.WriteString(",\n"); err != nil {
			return fmt.Errorf("write separator: %w", err)
		}
	}
	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("write company %q: %w", company.Name, err)
	}
	w.count++

	return w.file.Sync()
}

func (w *ResultWriter) Count() int {
	return w.count
}

func (w *ResultWriter) Path() string {
	return w.path
}

func (w *ResultWriter) Close() error {
	if _, err := w.file.WriteString("\n]\n"); err != nil {
		w.file.Close()
		return fmt.Errorf("write result footer: %w", err)
	}
	return w.file.Close()
}
