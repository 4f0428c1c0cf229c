package scraper

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"yc_scrooper/config"
	"yc_scrooper/models"
)

// ErrNoFounders reports a detail page that loaded fine but yielded no usable
// founder entries. Callers treat it the same as exhaustion: the company is
// dropped from the result file.
var ErrNoFounders = errors.New("no founders extracted")

// DetailFetcher loads a company detail page in a fresh scoped page and
// extracts the founder cards. Any failure during navigation, waiting or
// extraction voids the whole attempt; the fetch is retried from scratch up to
// maxRetries total attempts.
type DetailFetcher struct {
	session    Session
	sel        config.Selectors
	maxRetries int
	timeout    time.Duration
}

func NewDetailFetcher(session Session, sel config.Selectors, maxRetries int, timeout time.Duration) *DetailFetcher {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &DetailFetcher{
		session:    session,
		sel:        sel,
		maxRetries: maxRetries,
		timeout:    timeout,
	}
}

// FetchFounders returns the founders listed on the detail page at link, or an
// error once every attempt has failed. A page that parses cleanly but lists
// no founders returns ErrNoFounders without further retries.
func (f *DetailFetcher) FetchFounders(link string) ([]models.Founder, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		founders, err := f.attempt(link)
		if err != nil {
			lastErr = err
			log.Printf("Detail fetch %s: attempt %d/%d failed: %v", link, attempt, f.maxRetries, err)
			continue
		}
		if len(founders) == 0 {
			return nil, ErrNoFounders
		}
		return founders, nil
	}
	return nil, fmt.Errorf("detail fetch exhausted after %d attempts: %w", f.maxRetries, lastErr)
}

func (f *DetailFetcher) attempt(link string) ([]models.Founder, error) {
	page, err := f.session.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open detail page: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(link); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitFor(f.sel.FounderCard, f.timeout); err != nil {
		return nil, fmt.Errorf("wait for founder cards: %w", err)
	}

	cards, err := page.QueryAll(f.sel.FounderCard)
	if err != nil {
		return nil, fmt.Errorf("query founder cards: %w", err)
	}

	var founders []models.Founder
	for _, card := range cards {
		founder, ok, err := f.extract(card)
		if err != nil {
			return nil, fmt.Errorf("extract founder: %w", err)
		}
		if !ok {
			continue
		}
		founders = append(founders, founder)
	}
	return founders, nil
}

// extract reads one founder card. A card is only usable when it carries a
// name and its social-links container was found; zero links inside the
// container is fine.
func (f *DetailFetcher) extract(card Element) (models.Founder, bool, error) {
	name, err := card.Text(f.sel.FounderName)
	if err != nil {
		return models.Founder{}, false, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Founder{}, false, nil
	}

	linksBox, err := card.Query(f.sel.FounderLinks)
	if err != nil {
		return models.Founder{}, false, err
	}
	if linksBox == nil {
		return models.Founder{}, false, nil
	}

	anchors, err := linksBox.QueryAll(f.sel.Anchor)
	if err != nil {
		return models.Founder{}, false, err
	}

	links := []string{}
	for _, anchor := range anchors {
		href, err := anchor.Attribute("href")
		if err != nil {
			return models.Founder{}, false, err
		}
		if href != "" {
			links = append(links, href)
		}
	}

	return models.Founder{Name: name, Links: links}, true, nil
}
