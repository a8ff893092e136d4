// Package company follows the links a profile gives for its employer: a
// company website named in the bio and the company's own platform page.
// Both visits are best-effort. A failed visit is logged and only leaves its
// own fields empty.
package company

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/browser"
	"github.com/Nehilsa2/fb_profile_enrichment/config"
	"github.com/Nehilsa2/fb_profile_enrichment/extract"
	"github.com/Nehilsa2/fb_profile_enrichment/failure"
	"github.com/Nehilsa2/fb_profile_enrichment/stealth"
)

// IsURL reports whether a parsed company value is a link worth following
func IsURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Plan names the secondary visits that apply to one profile
type Plan struct {
	SiteURL string // company value from the bio, when it is a URL
	PageURL string // company page link found on the profile
}

// NewPlan keeps company only when it looks like a URL
func NewPlan(company, companyPage string) Plan {
	p := Plan{PageURL: strings.TrimSpace(companyPage)}
	if IsURL(company) {
		p.SiteURL = strings.TrimSpace(company)
	}
	return p
}

// Empty is true when there is nothing to visit
func (p Plan) Empty() bool {
	return p.SiteURL == "" && p.PageURL == ""
}

// Visitor runs the secondary visits on the run's surface
type Visitor struct {
	surface   browser.Surface
	tuning    config.Tuning
	extractor *extract.Extractor
	logger    arbor.ILogger
}

func NewVisitor(surface browser.Surface, tuning config.Tuning, logger arbor.ILogger) *Visitor {
	return &Visitor{
		surface:   surface,
		tuning:    tuning,
		extractor: extract.NewExtractor(surface, tuning, logger),
		logger:    logger,
	}
}

// Visit runs every visit in plan and returns whatever fields were read.
// The returned error joins the failed visits; it is always non-fatal and the
// fields of successful visits are kept.
func (v *Visitor) Visit(ctx context.Context, plan Plan) (extract.CompanyFields, error) {
	var (
		fields extract.CompanyFields
		errs   []error
	)

	if plan.SiteURL != "" {
		site, err := v.Site(ctx, plan.SiteURL)
		if err != nil {
			v.logger.Warn().Err(err).Str("url", plan.SiteURL).Msg("Error following company hyperlink")
			errs = append(errs, err)
		} else {
			fields = site
		}
	}

	if plan.PageURL != "" {
		followers, err := v.Page(ctx, plan.PageURL)
		if err != nil {
			v.logger.Warn().Err(err).Str("url", plan.PageURL).Msg("Error visiting company page")
			errs = append(errs, err)
		} else if followers != "" {
			fields.Followers = followers
		}
	}

	return fields, errors.Join(errs...)
}

// Site opens the company website and reads its contact fields
func (v *Visitor) Site(ctx context.Context, siteURL string) (fields extract.CompanyFields, err error) {
	defer guard("company.site", &err)

	v.logger.Info().Str("url", siteURL).Msg("Following company hyperlink")
	if err := v.open(ctx, siteURL); err != nil {
		return extract.CompanyFields{}, failure.Wrapf(failure.KindNavigation, "company.site", err, "open %s", siteURL)
	}

	return v.extractor.Company(ctx), nil
}

// Page opens the company's platform page, lets it settle and reads its
// followers label.
func (v *Visitor) Page(ctx context.Context, pageURL string) (followers string, err error) {
	defer guard("company.page", &err)

	target := v.absolute(pageURL)
	v.logger.Info().Str("url", target).Msg("Visiting company page")
	if err := v.open(ctx, target); err != nil {
		return "", failure.Wrapf(failure.KindNavigation, "company.page", err, "open %s", target)
	}
	if err := stealth.Pause(ctx, v.tuning.CompanySettle()); err != nil {
		return "", failure.Wrap(failure.KindNavigation, "company.page", err)
	}

	return v.extractor.Followers(ctx, v.tuning.CompanyFieldWait()), nil
}

func (v *Visitor) open(ctx context.Context, target string) error {
	navCtx, cancel := context.WithTimeout(ctx, v.tuning.NavigationTimeout())
	defer cancel()
	return v.surface.Navigate(navCtx, target)
}

// absolute resolves a relative page link against the platform root
func (v *Visitor) absolute(href string) string {
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	base, err := url.Parse(strings.TrimRight(v.tuning.PlatformRoot, "/") + "/")
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func guard(op string, err *error) {
	if r := recover(); r != nil {
		*err = failure.Wrap(failure.KindNavigation, op, fmt.Errorf("panic: %v", r))
	}
}
