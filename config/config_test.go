package config

import (
	"strings"
	"testing"
)

func TestListingURL(t *testing.T) {
	f := &FilterConfig{
		BaseURL:     "https://www.ycombinator.com/companies",
		Batch:       "W25",
		Regions:     []string{"Canada"},
		TeamSizeMin: 1,
		TeamSizeMax: 10,
	}

	u := f.ListingURL()
	for _, want := range []string{"batch=W25", "regions=Canada", "team_size=1-10"} {
		if !strings.Contains(u, want) {
			t.Fatalf("listing URL missing %q: %s", want, u)
		}
	}
}

func TestListingURL_NoFilters(t *testing.T) {
	f := &FilterConfig{BaseURL: "https://www.ycombinator.com/companies"}
	if got := f.ListingURL(); got != "https://www.ycombinator.com/companies" {
		t.Fatalf("unexpected URL: %s", got)
	}
}

func TestDefaultSelectors(t *testing.T) {
	s := DefaultSelectors()
	if s.Item == "" || s.FounderCard == "" || s.FounderName == "" || s.FounderLinks == "" || s.Anchor == "" {
		t.Fatalf("default selectors incomplete: %+v", s)
	}
}
