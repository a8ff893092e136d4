package search

import (
	"context"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/browser"
	"github.com/Nehilsa2/fb_profile_enrichment/config"
	"github.com/Nehilsa2/fb_profile_enrichment/failure"
	"github.com/Nehilsa2/fb_profile_enrichment/stealth"
)

// Finder locates one person's profile through the people search
type Finder struct {
	surface  browser.Surface
	tuning   config.Tuning
	resolver *Resolver
	logger   arbor.ILogger
}

func NewFinder(surface browser.Surface, tuning config.Tuning, logger arbor.ILogger) *Finder {
	return &Finder{
		surface:  surface,
		tuning:   tuning,
		resolver: NewResolver(tuning.PlatformRoot),
		logger:   logger,
	}
}

// Results holds the anchors of a rendered results page
type Results struct {
	Links    []CandidateLink
	elements []browser.Element
}

// Search opens the people search for name and collects its anchors.
// A results page that fails to load is a resolution miss, not a fatal error.
func (f *Finder) Search(ctx context.Context, name string) (*Results, error) {
	searchURL := SearchURL(f.tuning.PlatformRoot, name)
	f.logger.Info().Str("url", searchURL).Msg("Opening people search")

	if err := OpenSearchPage(ctx, f.surface, searchURL, f.tuning.NavigationTimeout(), f.tuning.SearchSettle()); err != nil {
		return &Results{}, failure.Wrapf(failure.KindResolutionMiss, "search.open", err, "search page for %q did not load", name)
	}

	links, elements, err := CollectCandidates(ctx, f.surface)
	if err != nil {
		return &Results{}, failure.Wrap(failure.KindResolutionMiss, "search.collect", err)
	}

	f.logger.Info().Int("anchors", len(links)).Msg("Search results collected")
	return &Results{Links: links, elements: elements}, nil
}

// Resolve picks the profile link for name among the results
func (f *Finder) Resolve(name string, results *Results) Resolution {
	res := f.resolver.Resolve(name, results.Links)

	switch res.Status {
	case MatchExact:
		f.logger.Info().Str("href", res.Link.Href).Msg("Exact profile match found")
	case MatchFallback:
		f.logger.Warn().Str("href", res.Link.Href).Msg("No exact name match, using first profile link")
	default:
		f.logger.Warn().Str("name", name).Msg("No profile link found in search results")
	}

	return res
}

// Open brings the matched profile up: scroll to the anchor, hover, click and
// wait for the page to load. If the click can't be performed the href is
// opened directly instead.
func (f *Finder) Open(ctx context.Context, res Resolution, results *Results) error {
	if !res.Found() {
		return failure.New(failure.KindResolutionMiss, "search.open_profile", "no candidate to open")
	}

	timeout := f.tuning.NavigationTimeout()

	if err := f.clickThrough(ctx, results.elements[res.Index], timeout); err != nil {
		f.logger.Warn().Err(err).Msg("Click on profile link failed, navigating directly")

		navCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := f.surface.Navigate(navCtx, f.absolute(res.Link.Href)); err != nil {
			return failure.Wrapf(failure.KindNavigation, "search.open_profile", err, "could not open %s", res.Link.Href)
		}
	}

	if err := stealth.Pause(ctx, f.tuning.ProfileSettle()); err != nil {
		return err
	}

	f.logger.Info().Str("url", f.surface.URL()).Msg("Profile page opened")
	return nil
}

func (f *Finder) clickThrough(ctx context.Context, el browser.Element, timeout time.Duration) error {
	clickCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := el.ScrollIntoView(clickCtx); err != nil {
		return err
	}
	if err := el.Hover(clickCtx); err != nil {
		return err
	}
	if err := el.Click(clickCtx); err != nil {
		return err
	}
	return f.surface.WaitLoad(clickCtx)
}

// absolute resolves a relative result href against the platform root
func (f *Finder) absolute(href string) string {
	base, err := url.Parse(f.tuning.PlatformRoot)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// FindProfile runs Search, Resolve and Open in sequence
func (f *Finder) FindProfile(ctx context.Context, name string) (Resolution, error) {
	results, err := f.Search(ctx, name)
	if err != nil {
		return Resolution{Status: MatchNone, Index: -1}, err
	}

	res := f.Resolve(name, results)
	if !res.Found() {
		return res, nil
	}

	return res, f.Open(ctx, res, results)
}
