// Package search opens the platform's people search and resolves the target
// person's profile link among the rendered results.
package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Nehilsa2/fb_profile_enrichment/browser"
	"github.com/Nehilsa2/fb_profile_enrichment/stealth"
)

// SearchURL builds the people-search address for keyword
func SearchURL(platformRoot, keyword string) string {
	return fmt.Sprintf("%s/search/people/?q=%s",
		strings.TrimRight(platformRoot, "/"),
		url.QueryEscape(keyword),
	)
}

// OpenSearchPage navigates to searchURL within timeout, then lets the
// results render for settle.
func OpenSearchPage(ctx context.Context, s browser.Surface, searchURL string, timeout, settle time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Navigate(navCtx, searchURL); err != nil {
		return err
	}
	return stealth.Pause(ctx, settle)
}

// CollectCandidates reads every anchor on the page, in document order.
// Anchors whose text or href can't be read are kept with empty values so
// indexes stay aligned with the page.
func CollectCandidates(ctx context.Context, s browser.Surface) ([]CandidateLink, []browser.Element, error) {
	anchors, err := s.Elements(ctx, "a")
	if err != nil {
		return nil, nil, err
	}

	links := make([]CandidateLink, 0, len(anchors))
	for _, a := range anchors {
		text, _ := a.Text(ctx)
		href, _ := a.Attribute(ctx, "href")
		links = append(links, CandidateLink{Text: text, Href: href})
	}

	return links, anchors, nil
}
