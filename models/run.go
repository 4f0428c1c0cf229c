package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type ScrapeRun struct {
	ID                int64      `json:"id" db:"id"`
	RunUID            uuid.UUID  `json:"run_uid" db:"run_uid"`
	FilterID          string     `json:"filter_id" db:"filter_id"`
	StartedAt         time.Time  `json:"started_at" db:"started_at"`
	FinishedAt        *time.Time `json:"finished_at" db:"finished_at"`
	Status            RunStatus  `json:"status" db:"status"`
	CompaniesFound    int        `json:"companies_found" db:"companies_found"`
	CompaniesUnique   int        `json:"companies_unique" db:"companies_unique"`
	CompaniesEnriched int        `json:"companies_enriched" db:"companies_enriched"`
	CompaniesDropped  int        `json:"companies_dropped" db:"companies_dropped"`
	ErrorsCount       int        `json:"errors_count" db:"errors_count"`
	ResultPath        string     `json:"result_path" db:"result_path"`
}

type FilterStats struct {
	FilterID          string     `json:"filter_id" db:"filter_id"`
	LastRunAt         *time.Time `json:"last_run_at" db:"last_run_at"`
	LastRunStatus     string     `json:"last_run_status" db:"last_run_status"`
	TotalCompanies    int        `json:"total_companies" db:"total_companies"`
	CompaniesEnriched int        `json:"companies_enriched" db:"companies_enriched"`
	SuccessRate       float64    `json:"success_rate" db:"success_rate"`
	AvgRunDurationSec int        `json:"avg_run_duration_sec" db:"avg_run_duration_sec"`
}
