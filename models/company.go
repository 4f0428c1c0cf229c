package models

import "time"

// Company is one organization row harvested from the directory listing.
// Name, Location and URL are kept verbatim as extracted; together they form
// the company's identity (see the identity package).
type Company struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	URL      string `json:"link"`

	// Founders is nil until enrichment sets it, exactly once. A company whose
	// enrichment exhausts its retries keeps Founders nil and is dropped from
	// the result file.
	Founders []Founder `json:"founders"`

	FilterID    string    `json:"-" db:"filter_id"`
	FirstSeenAt time.Time `json:"-" db:"first_seen_at"`
}

// Founder is one person extracted from a company detail page. Links may be
// empty; a founder with no name is never recorded.
type Founder struct {
	Name  string   `json:"name"`
	Links []string `json:"links"`
}

// Enrichment status values stored in SQLite.
const (
	EnrichmentPending   = "pending"
	EnrichmentDone      = "done"
	EnrichmentExhausted = "exhausted"
)
