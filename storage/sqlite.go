package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"yc_scrooper/models"
)

// SQLiteStore holds operational data: the companies seen so far, scrape runs,
// run logs, pending commands and per-filter stats.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		fingerprint TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT NOT NULL,
		url TEXT NOT NULL,
		filter_id TEXT,
		founders JSON,
		enrichment_status TEXT DEFAULT 'pending',
		enrichment_attempts INTEGER DEFAULT 0,
		first_seen_at DATETIME,
		last_seen_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		run_uid TEXT,
		filter_id TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		companies_found INTEGER DEFAULT 0,
		companies_unique INTEGER DEFAULT 0,
		companies_enriched INTEGER DEFAULT 0,
		companies_dropped INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0,
		result_path TEXT
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		filter_id TEXT
	);

	CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY,
		command TEXT,
		params JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS filter_stats (
		filter_id TEXT PRIMARY KEY,
		last_run_at DATETIME,
		last_run_status TEXT,
		total_companies INTEGER,
		companies_enriched INTEGER,
		success_rate REAL,
		avg_run_duration_sec INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_companies_status ON companies(enrichment_status);
	CREATE INDEX IF NOT EXISTS idx_companies_filter ON companies(filter_id);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON scrape_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_commands_pending ON commands(processed_at) WHERE processed_at IS NULL;
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// Companies
// =============================================================================

func (s *SQLiteStore) UpsertCompany(fingerprint string, c *models.Company) error {
	now := time.Now()
	_, err := s.db.Exec(`
		INSERT INTO companies (fingerprint, name, location, url, filter_id, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET last_seen_at = excluded.last_seen_at`,
		fingerprint, c.Name, c.Location, c.URL, c.FilterID, now, now)
	return err
}

func (s *SQLiteStore) MarkEnriched(fingerprint string, founders []models.Founder) error {
	data, err := json.Marshal(founders)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		UPDATE companies
		SET founders = ?, enrichment_status = ?, enrichment_attempts = enrichment_attempts + 1
		WHERE fingerprint = ?`,
		data, models.EnrichmentDone, fingerprint)
	return err
}

func (s *SQLiteStore) MarkExhausted(fingerprint string) error {
	_, err := s.db.Exec(`
		UPDATE companies
		SET enrichment_status = ?, enrichment_attempts = enrichment_attempts + 1
		WHERE fingerprint = ?`,
		models.EnrichmentExhausted, fingerprint)
	return err
}

// ExhaustedCompany is one enrichment candidate for the retry worker.
type ExhaustedCompany struct {
	Fingerprint string
	Name        string
	URL         string
	FilterID    string
	Attempts    int
}

// ExhaustedCompanies returns companies whose browser enrichment gave up,
// oldest first, capped at limit. Companies past maxAttempts are left alone.
func (s *SQLiteStore) ExhaustedCompanies(limit, maxAttempts int) ([]ExhaustedCompany, error) {
	rows, err := s.db.Query(`
		SELECT fingerprint, name, url, COALESCE(filter_id, ''), enrichment_attempts
		FROM companies
		WHERE enrichment_status = ? AND enrichment_attempts < ?
		ORDER BY first_seen_at
		LIMIT ?`,
		models.EnrichmentExhausted, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExhaustedCompany
	for rows.Next() {
		var c ExhaustedCompany
		if err := rows.Scan(&c.Fingerprint, &c.Name, &c.URL, &c.FilterID, &c.Attempts); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) IncrementEnrichmentAttempts(fingerprint string) error {
	_, err := s.db.Exec(`
		UPDATE companies SET enrichment_attempts = enrichment_attempts + 1 WHERE fingerprint = ?`,
		fingerprint)
	return err
}

// =============================================================================
// Runs
// =============================================================================

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO scrape_runs (run_uid, filter_id, started_at, status)
		VALUES (?, ?, ?, ?)`,
		run.RunUID.String(), run.FilterID, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		UPDATE scrape_runs SET
			finished_at = ?, status = ?, companies_found = ?, companies_unique = ?,
			companies_enriched = ?, companies_dropped = ?, errors_count = ?, result_path = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.CompaniesFound, run.CompaniesUnique,
		run.CompaniesEnriched, run.CompaniesDropped, run.ErrorsCount, run.ResultPath, run.ID)
	return err
}

// =============================================================================
// Logs
// =============================================================================

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, filterID string) error {
	_, err := s.db.Exec(`
		INSERT INTO scrape_logs (run_id, timestamp, level, message, filter_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, filterID)
	return err
}

// =============================================================================
// Commands
// =============================================================================

func (s *SQLiteStore) PendingCommands() ([]*models.Command, error) {
	rows, err := s.db.Query(`
		SELECT id, command, COALESCE(params, 'null'), created_at
		FROM commands WHERE processed_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []*models.Command
	for rows.Next() {
		var cmd models.Command
		if err := rows.Scan(&cmd.ID, &cmd.Command, &cmd.Params, &cmd.CreatedAt); err != nil {
			return nil, err
		}
		cmds = append(cmds, &cmd)
	}
	return cmds, rows.Err()
}

func (s *SQLiteStore) MarkCommandProcessed(id int64) error {
	_, err := s.db.Exec(`UPDATE commands SET processed_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

func (s *SQLiteStore) ParseCommandParams(cmd *models.Command) (*models.CommandParams, error) {
	params := &models.CommandParams{}
	if len(cmd.Params) == 0 || string(cmd.Params) == "null" {
		return params, nil
	}
	if err := json.Unmarshal(cmd.Params, params); err != nil {
		return nil, fmt.Errorf("parse command params: %w", err)
	}
	return params, nil
}

// =============================================================================
// Stats
// =============================================================================

func (s *SQLiteStore) UpdateFilterStats(filterID string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO filter_stats
			(filter_id, last_run_at, last_run_status, total_companies, companies_enriched, success_rate, avg_run_duration_sec)
		SELECT
			?,
			(SELECT started_at FROM scrape_runs WHERE filter_id = ? ORDER BY id DESC LIMIT 1),
			(SELECT status FROM scrape_runs WHERE filter_id = ? ORDER BY id DESC LIMIT 1),
			(SELECT COUNT(*) FROM companies WHERE filter_id = ?),
			(SELECT COUNT(*) FROM companies WHERE filter_id = ? AND enrichment_status = 'done'),
			(SELECT COALESCE(AVG(CASE WHEN status = 'completed' THEN 1.0 ELSE 0.0 END), 0) FROM scrape_runs WHERE filter_id = ?),
			(SELECT COALESCE(AVG(CAST(strftime('%s', finished_at) - strftime('%s', started_at) AS INTEGER)), 0)
				FROM scrape_runs WHERE filter_id = ? AND finished_at IS NOT NULL)`,
		filterID, filterID, filterID, filterID, filterID, filterID, filterID)
	return err
}
