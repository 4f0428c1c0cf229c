package scraper

import (
	"time"

	"yc_scrooper/identity"
	"yc_scrooper/models"
)

// Collector absorbs the traversal's re-visitation stream into a canonical
// company set: first occurrence wins, later emissions with the same identity
// key are discarded, insertion order is preserved.
type Collector struct {
	seen      map[identity.Key]struct{}
	companies []*models.Company
	raw       int
}

func NewCollector() *Collector {
	return &Collector{seen: make(map[identity.Key]struct{})}
}

// Add records one raw emission. It reports whether the company was new.
func (c *Collector) Add(company models.Company) bool {
	c.raw++

	key := identity.KeyOf(&company)
	if _, dup := c.seen[key]; dup {
		return false
	}
	c.seen[key] = struct{}{}

	company.FirstSeenAt = time.Now()
	c.companies = append(c.companies, &company)
	return true
}

// Companies returns the canonical set in first-seen order.
func (c *Collector) Companies() []*models.Company {
	return c.companies
}

// Raw returns the total number of emissions consumed, duplicates included.
func (c *Collector) Raw() int {
	return c.raw
}

func (c *Collector) Len() int {
	return len(c.companies)
}
