package scraper

import (
	"errors"
	"time"
)

var errTimeout = errors.New("timeout waiting for selector")

// fakeElement is a scripted DOM node keyed by the selectors the code under
// test uses.
type fakeElement struct {
	texts    map[string]string
	attrs    map[string]string
	children map[string][]*fakeElement
	textErr  error
}

func (e *fakeElement) Text(selector string) (string, error) {
	if e.textErr != nil {
		return "", e.textErr
	}
	return e.texts[selector], nil
}

func (e *fakeElement) Attribute(name string) (string, error) {
	return e.attrs[name], nil
}

func (e *fakeElement) Query(selector string) (Element, error) {
	kids := e.children[selector]
	if len(kids) == 0 {
		return nil, nil
	}
	return kids[0], nil
}

func (e *fakeElement) QueryAll(selector string) ([]Element, error) {
	kids := e.children[selector]
	out := make([]Element, len(kids))
	for i, k := range kids {
		out[i] = k
	}
	return out, nil
}

// fakeListingPage simulates an infinite-scroll listing: QueryAll serves one
// snapshot per collection round, Evaluate serves the scripted document
// heights.
type fakeListingPage struct {
	heights   []float64
	heightIdx int
	snapshots [][]Element
	round     int
	waitErr   error
	scrolls   int
	closed    bool
}

func (p *fakeListingPage) Navigate(url string) error { return nil }

func (p *fakeListingPage) WaitFor(selector string, timeout time.Duration) error {
	return p.waitErr
}

func (p *fakeListingPage) QueryAll(selector string) ([]Element, error) {
	var snap []Element
	if p.round < len(p.snapshots) {
		snap = p.snapshots[p.round]
	} else if len(p.snapshots) > 0 {
		snap = p.snapshots[len(p.snapshots)-1]
	}
	p.round++
	return snap, nil
}

func (p *fakeListingPage) Evaluate(script string) (interface{}, error) {
	if script == measureHeightScript {
		idx := p.heightIdx
		if idx >= len(p.heights) {
			idx = len(p.heights) - 1
		}
		p.heightIdx++
		return p.heights[idx], nil
	}
	p.scrolls++
	return nil, nil
}

func (p *fakeListingPage) Close() error {
	p.closed = true
	return nil
}

// fakeDetailPage simulates one company detail page.
type fakeDetailPage struct {
	navErr  error
	waitErr error
	cards   []Element
	closed  bool
}

func (p *fakeDetailPage) Navigate(url string) error { return p.navErr }

func (p *fakeDetailPage) WaitFor(selector string, timeout time.Duration) error {
	return p.waitErr
}

func (p *fakeDetailPage) QueryAll(selector string) ([]Element, error) {
	return p.cards, nil
}

func (p *fakeDetailPage) Evaluate(script string) (interface{}, error) {
	return nil, errors.New("detail pages do not evaluate scripts")
}

func (p *fakeDetailPage) Close() error {
	p.closed = true
	return nil
}

// fakeSession hands out scripted pages in order.
type fakeSession struct {
	pages  []Page
	opened int
	closed bool
}

func (s *fakeSession) NewPage() (Page, error) {
	if s.opened >= len(s.pages) {
		return nil, errors.New("no more scripted pages")
	}
	page := s.pages[s.opened]
	s.opened++
	return page, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}
