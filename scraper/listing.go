package scraper

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"yc_scrooper/config"
	"yc_scrooper/models"
)

const (
	measureHeightScript  = `document.body.scrollHeight`
	scrollToBottomScript = `window.scrollTo(0, document.body.scrollHeight)`
)

// ListingTraversal walks an infinitely-scrolling directory listing and emits
// every rendered company row. Newly loaded rows are appended to the DOM, so
// each snapshot re-emits rows already seen in earlier iterations; the
// collector is the sole dedup authority.
type ListingTraversal struct {
	page          Page
	base          *url.URL
	sel           config.Selectors
	itemTimeout   time.Duration
	maxIterations int // 0 = unbounded
}

func NewListingTraversal(page Page, listingURL string, sel config.Selectors, itemTimeout time.Duration, maxIterations int) (*ListingTraversal, error) {
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}
	return &ListingTraversal{
		page:          page,
		base:          base,
		sel:           sel,
		itemTimeout:   itemTimeout,
		maxIterations: maxIterations,
	}, nil
}

// Run scrolls the listing to the bottom until the document height stops
// growing, emitting every snapshotted row along the way. The first collection
// iteration always runs; the height check happens only after scrolling.
func (t *ListingTraversal) Run(emit func(models.Company)) error {
	previousHeight, err := t.measureHeight()
	if err != nil {
		return fmt.Errorf("read initial height: %w", err)
	}

	for iteration := 1; ; iteration++ {
		if t.maxIterations > 0 && iteration > t.maxIterations {
			log.Printf("Listing: scroll ceiling (%d) reached, stopping", t.maxIterations)
			return nil
		}

		if err := t.page.WaitFor(t.sel.Item, t.itemTimeout); err != nil {
			return fmt.Errorf("wait for listing items: %w", err)
		}

		items, err := t.page.QueryAll(t.sel.Item)
		if err != nil {
			return fmt.Errorf("query listing items: %w", err)
		}
		for _, item := range items {
			company, ok := t.extract(item)
			if !ok {
				continue
			}
			emit(company)
		}
		log.Printf("Listing: iteration %d snapshotted %d rows", iteration, len(items))

		if _, err := t.page.Evaluate(scrollToBottomScript); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}
		currentHeight, err := t.measureHeight()
		if err != nil {
			return fmt.Errorf("read height: %w", err)
		}

		if currentHeight <= previousHeight {
			log.Printf("Listing: height stable at %.0f, traversal done", currentHeight)
			return nil
		}
		previousHeight = currentHeight
	}
}

func (t *ListingTraversal) measureHeight() (float64, error) {
	v, err := t.page.Evaluate(measureHeightScript)
	if err != nil {
		return 0, err
	}
	return toFloat(v), nil
}

// extract pulls name, location and link from one listing row. Rows missing
// any of the three fields are skipped without being emitted.
func (t *ListingTraversal) extract(item Element) (models.Company, bool) {
	name, err := item.Text(t.sel.ItemName)
	if err != nil || strings.TrimSpace(name) == "" {
		return models.Company{}, false
	}
	location, err := item.Text(t.sel.ItemLocation)
	if err != nil || strings.TrimSpace(location) == "" {
		return models.Company{}, false
	}
	href, err := item.Attribute("href")
	if err != nil || href == "" {
		return models.Company{}, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return models.Company{}, false
	}

	return models.Company{
		Name:     name,
		Location: location,
		URL:      t.base.ResolveReference(ref).String(),
	}, true
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
