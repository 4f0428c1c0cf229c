package scraper

import (
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightSession drives a real Chromium browser. One session is opened per
// run and shared between the listing traversal and every detail fetch.
type PlaywrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	mu      sync.Mutex
	closed  bool
}

func NewPlaywrightSession(headless bool) (Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	context, err := browser.NewContext()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	return &PlaywrightSession{pw: pw, browser: browser, context: context}, nil
}

func (s *PlaywrightSession) NewPage() (Page, error) {
	page, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &playwrightPage{page: page}, nil
}

func (s *PlaywrightSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.context != nil {
		s.context.Close()
	}
	if s.browser != nil {
		s.browser.Close()
	}
	if s.pw != nil {
		return s.pw.Stop()
	}
	return nil
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Navigate(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *playwrightPage) WaitFor(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (p *playwrightPage) QueryAll(selector string) ([]Element, error) {
	locators, err := p.page.Locator(selector).All()
	if err != nil {
		return nil, err
	}
	elements := make([]Element, len(locators))
	for i, loc := range locators {
		elements[i] = &playwrightElement{loc: loc}
	}
	return elements, nil
}

func (p *playwrightPage) Evaluate(script string) (interface{}, error) {
	return p.page.Evaluate(script)
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

type playwrightElement struct {
	loc playwright.Locator
}

func (e *playwrightElement) Text(selector string) (string, error) {
	loc := e.loc
	if selector != "" {
		sub := e.loc.Locator(selector)
		count, err := sub.Count()
		if err != nil {
			return "", err
		}
		if count == 0 {
			return "", nil
		}
		loc = sub.First()
	}
	return loc.InnerText()
}

func (e *playwrightElement) Attribute(name string) (string, error) {
	return e.loc.GetAttribute(name)
}

func (e *playwrightElement) Query(selector string) (Element, error) {
	sub := e.loc.Locator(selector)
	count, err := sub.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return &playwrightElement{loc: sub.First()}, nil
}

func (e *playwrightElement) QueryAll(selector string) ([]Element, error) {
	locators, err := e.loc.Locator(selector).All()
	if err != nil {
		return nil, err
	}
	elements := make([]Element, len(locators))
	for i, loc := range locators {
		elements[i] = &playwrightElement{loc: loc}
	}
	return elements, nil
}
