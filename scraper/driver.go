package scraper

import "time"

// Session is one browsing session shared by a whole run. The listing page and
// every detail fetch open their own Page inside it; the orchestrator owns the
// session and closes it when the run ends.
type Session interface {
	NewPage() (Page, error)
	Close() error
}

// Page is a single tab-like browsing context.
type Page interface {
	Navigate(url string) error
	// WaitFor blocks until the selector matches or the timeout elapses.
	WaitFor(selector string, timeout time.Duration) error
	QueryAll(selector string) ([]Element, error)
	// Evaluate runs a script in the page; used only to scroll and to read the
	// document height.
	Evaluate(script string) (interface{}, error)
	Close() error
}

// Element is one rendered DOM node.
type Element interface {
	// Text returns the inner text of the first descendant matching selector,
	// or "" when nothing matches.
	Text(selector string) (string, error)
	Attribute(name string) (string, error)
	// Query returns the first matching descendant, or nil when absent.
	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)
}
