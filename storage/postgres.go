package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"yc_scrooper/models"
)

// PostgresStore mirrors enriched companies and run records into a Postgres
// warehouse. It is optional; the pipeline runs fine on SQLite alone.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		fingerprint TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT NOT NULL,
		url TEXT NOT NULL,
		filter_id TEXT,
		first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS founders (
		id BIGSERIAL PRIMARY KEY,
		company_fingerprint TEXT NOT NULL REFERENCES companies(fingerprint) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		links TEXT[] NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		run_uid UUID PRIMARY KEY,
		filter_id TEXT,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		status TEXT,
		companies_found INTEGER DEFAULT 0,
		companies_unique INTEGER DEFAULT 0,
		companies_enriched INTEGER DEFAULT 0,
		companies_dropped INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0,
		result_path TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_founders_company ON founders(company_fingerprint, position);
	CREATE INDEX IF NOT EXISTS idx_companies_filter ON companies(filter_id);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// UpsertCompany writes the company row and replaces its founders in one
// transaction. Founders keep their on-page order via the position column.
func (s *PostgresStore) UpsertCompany(ctx context.Context, fingerprint string, c *models.Company) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO companies (fingerprint, name, location, url, filter_id, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (fingerprint) DO UPDATE SET last_seen_at = NOW()`,
		fingerprint, c.Name, c.Location, c.URL, c.FilterID)
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}

	if c.Founders != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM founders WHERE company_fingerprint = $1`, fingerprint); err != nil {
			return fmt.Errorf("clear founders: %w", err)
		}
		for i, f := range c.Founders {
			_, err := tx.Exec(ctx, `
				INSERT INTO founders (company_fingerprint, position, name, links)
				VALUES ($1, $2, $3, $4)`,
				fingerprint, i, f.Name, f.Links)
			if err != nil {
				return fmt.Errorf("insert founder %q: %w", f.Name, err)
			}
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) CreateScrapeRun(ctx context.Context, run *models.ScrapeRun) error {
	if run.RunUID == uuid.Nil {
		run.RunUID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scrape_runs (run_uid, filter_id, started_at, status)
		VALUES ($1, $2, $3, $4)`,
		run.RunUID, run.FilterID, run.StartedAt, run.Status)
	return err
}

func (s *PostgresStore) UpdateScrapeRun(ctx context.Context, run *models.ScrapeRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE scrape_runs SET
			finished_at = $2, status = $3, companies_found = $4, companies_unique = $5,
			companies_enriched = $6, companies_dropped = $7, errors_count = $8, result_path = $9
		WHERE run_uid = $1`,
		run.RunUID, run.FinishedAt, run.Status, run.CompaniesFound, run.CompaniesUnique,
		run.CompaniesEnriched, run.CompaniesDropped, run.ErrorsCount, run.ResultPath)
	return err
}
