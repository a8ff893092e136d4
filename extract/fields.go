package extract

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/bio"
	"github.com/Nehilsa2/fb_profile_enrichment/browser"
	"github.com/Nehilsa2/fb_profile_enrichment/config"
)

var (
	countPattern = regexp.MustCompile(`\d+(\.\d+)?K?`)

	// "1.2K friends", "348 friends"
	friendsSpanPattern = regexp.MustCompile(`(?i)^\s*([\d.,]+K?)\s+friends\b`)

	introPattern = regexp.MustCompile(`\bIntro\b`)
)

// companyPageExclusions mark links to people, groups and events rather than
// an organisation's page
var companyPageExclusions = []string{"profile.php", "people/", "groups/", "events/"}

// ProfileFields are the values read directly off a profile page
type ProfileFields struct {
	Friends            string
	FriendsListVisible string
	LinkedIn           string
	Email              string
	Phone              string
	Bio                string
	Followers          string
	CompanyPage        string
}

// CompanyFields are the values read off a company site or page
type CompanyFields struct {
	Followers string
	Phone     string
	Email     string
	Website   string
}

// Extractor reads fields from whatever page the surface currently shows
type Extractor struct {
	surface browser.Surface
	tuning  config.Tuning
	logger  arbor.ILogger
}

func NewExtractor(surface browser.Surface, tuning config.Tuning, logger arbor.ILogger) *Extractor {
	return &Extractor{surface: surface, tuning: tuning, logger: logger}
}

// Profile reads every profile-page field in a fixed order
func (e *Extractor) Profile(ctx context.Context) ProfileFields {
	return ProfileFields{
		Friends:            e.Friends(ctx),
		FriendsListVisible: e.FriendsListVisible(ctx),
		LinkedIn:           e.LinkedIn(ctx),
		Email:              e.Email(ctx, e.tuning.LinkWait()),
		Phone:              e.Phone(ctx, e.tuning.LinkWait()),
		Bio:                e.Bio(ctx),
		Followers:          e.Followers(ctx, e.tuning.LinkWait()),
		CompanyPage:        e.CompanyPage(ctx),
	}
}

// Company reads the contact fields of a company site
func (e *Extractor) Company(ctx context.Context) CompanyFields {
	wait := e.tuning.CompanyFieldWait()
	return CompanyFields{
		Followers: e.Followers(ctx, wait),
		Phone:     e.Phone(ctx, wait),
		Email:     e.Email(ctx, wait),
		Website:   e.Website(ctx, wait),
	}
}

func (e *Extractor) report(field string, out Outcome[string]) string {
	if out.Found && out.Value != "" {
		e.logger.Info().Str("field", field).Str("value", out.Value).Msg("Field extracted")
	} else {
		e.logger.Info().Str("field", field).Msg("Not found")
	}
	return out.OrEmpty()
}

// Friends reads the friend count from the friends link, falling back to any
// numeric badge inside a friends link and then to a "<n> friends" label.
func (e *Extractor) Friends(ctx context.Context) string {
	wait := e.tuning.FriendsWait()

	out := Chain(ctx,
		Step[string]{Name: "friends-link", Timeout: wait, Probe: func(ctx context.Context) (string, bool, error) {
			links, err := e.surface.Elements(ctx, `a[href$="/friends/"]`)
			if err != nil || len(links) == 0 {
				return "", false, err
			}
			strongs, err := links[0].Elements(ctx, "strong")
			if err != nil || len(strongs) == 0 {
				return "", false, err
			}
			text, err := strongs[0].Text(ctx)
			return strings.TrimSpace(text), err == nil && strings.TrimSpace(text) != "", err
		}},
		Step[string]{Name: "friends-badge", Timeout: wait, Probe: func(ctx context.Context) (string, bool, error) {
			links, err := e.surface.Elements(ctx, `a[href*="/friends/"]`)
			if err != nil {
				return "", false, err
			}
			for _, link := range links {
				strongs, err := link.Elements(ctx, "strong")
				if err != nil {
					continue
				}
				text, _, err := textWhere(ctx, strongs, countPattern.MatchString)
				if err != nil {
					return "", false, err
				}
				if text != "" {
					return strings.TrimSpace(text), true, nil
				}
			}
			return "", false, nil
		}},
		Step[string]{Name: "friends-label", Timeout: wait, Probe: func(ctx context.Context) (string, bool, error) {
			spans, err := e.surface.Elements(ctx, "span")
			if err != nil {
				return "", false, err
			}
			text, _, err := textWhere(ctx, spans, friendsSpanPattern.MatchString)
			if err != nil || text == "" {
				return "", false, err
			}
			return friendsSpanPattern.FindStringSubmatch(text)[1], true, nil
		}},
	)

	return e.report("friends", out)
}

// FriendsListVisible is "Yes" when the first link mentioning Friends is
// visible. Later links are not considered.
func (e *Extractor) FriendsListVisible(ctx context.Context) string {
	out := Attempt(ctx, Step[string]{Name: "friends-visible", Timeout: e.tuning.VisibilityWait(), Probe: func(ctx context.Context) (string, bool, error) {
		links, err := e.surface.Elements(ctx, "a")
		if err != nil {
			return "", false, err
		}
		_, link, err := textWhere(ctx, links, func(s string) bool { return containsFold(s, "Friends") })
		if err != nil || link == nil {
			return "", false, err
		}
		visible, err := link.Visible(ctx)
		return "Yes", err == nil && visible, err
	}})

	value := out.OrElse("No")
	e.logger.Info().Str("field", "friendsListVisible").Str("value", value).Msg("Field extracted")
	return value
}

// LinkedIn reads the first professional-network profile link
func (e *Extractor) LinkedIn(ctx context.Context) string {
	selector := `a[href*="` + e.tuning.ProfessionalDomain + `"]`
	out := Attempt(ctx, Step[string]{Name: "linkedin", Timeout: e.tuning.LinkWait(), Probe: func(ctx context.Context) (string, bool, error) {
		return firstAttr(ctx, e.surface, selector, "href")
	}})
	return e.report("linkedin", out)
}

// Email reads the first mailto link, without its scheme
func (e *Extractor) Email(ctx context.Context, wait time.Duration) string {
	out := Attempt(ctx, Step[string]{Name: "email", Timeout: wait, Probe: func(ctx context.Context) (string, bool, error) {
		href, ok, err := firstAttr(ctx, e.surface, `a[href^="mailto:"]`, "href")
		return strings.TrimPrefix(href, "mailto:"), ok, err
	}})
	return e.report("email", out)
}

// Phone reads the first tel link. Numbers outside the configured country
// prefix are discarded rather than searched past.
func (e *Extractor) Phone(ctx context.Context, wait time.Duration) string {
	accepted := "tel:" + e.tuning.PhonePrefix

	out := Attempt(ctx, Step[string]{Name: "phone", Timeout: wait, Probe: func(ctx context.Context) (string, bool, error) {
		href, ok, err := firstAttr(ctx, e.surface, `a[href^="tel:"]`, "href")
		if !ok || err != nil {
			return "", ok, err
		}
		if !strings.HasPrefix(href, accepted) {
			return "", true, nil
		}
		return strings.TrimPrefix(href, "tel:"), true, nil
	}})
	return e.report("phone", out)
}

// Bio reads the intro card verbatim, falling back to the first div that
// mentions Intro.
func (e *Extractor) Bio(ctx context.Context) string {
	wait := e.tuning.BioWait()

	out := Chain(ctx,
		Step[string]{Name: "intro-card", Timeout: wait, Probe: func(ctx context.Context) (string, bool, error) {
			return firstText(ctx, e.surface, e.tuning.IntroCardSelector)
		}},
		Step[string]{Name: "intro-div", Timeout: wait, Probe: func(ctx context.Context) (string, bool, error) {
			divs, err := e.surface.Elements(ctx, "div")
			if err != nil {
				return "", false, err
			}
			text, el, err := textWhere(ctx, divs, introPattern.MatchString)
			return text, el != nil, err
		}},
	)

	if out.Found {
		e.logger.Debug().Str("bio", out.Value).Msg("Bio/Intro text")
	}
	return e.report("bio", out)
}

// Followers reads the first label mentioning followers
func (e *Extractor) Followers(ctx context.Context, wait time.Duration) string {
	out := Attempt(ctx, Step[string]{Name: "followers", Timeout: wait, Probe: func(ctx context.Context) (string, bool, error) {
		spans, err := e.surface.Elements(ctx, "span")
		if err != nil {
			return "", false, err
		}
		text, el, err := textWhere(ctx, spans, func(s string) bool { return containsFold(s, "followers") })
		return strings.TrimSpace(text), el != nil, err
	}})
	return e.report("followers", out)
}

// Relationship looks for a visible label that is exactly a relationship
// word, for profiles whose intro doesn't state one.
func (e *Extractor) Relationship(ctx context.Context) string {
	out := Attempt(ctx, Step[string]{Name: "relationship", Timeout: e.tuning.VisibilityWait(), Probe: func(ctx context.Context) (string, bool, error) {
		spans, err := e.surface.Elements(ctx, "span")
		if err != nil {
			return "", false, err
		}
		for _, word := range bio.MaritalWords {
			for _, span := range spans {
				text, err := span.Text(ctx)
				if err != nil || strings.ToLower(strings.TrimSpace(text)) != word {
					continue
				}
				if visible, err := span.Visible(ctx); err == nil && visible {
					return strings.TrimSpace(text), true, nil
				}
			}
		}
		return "", false, nil
	}})
	return e.report("maritalStatus", out)
}

// CompanyPage returns the first platform link that is not a person, group
// or event. The rule is loose and may pick an unrelated navigation link.
func (e *Extractor) CompanyPage(ctx context.Context) string {
	selector := `a[href*="` + PlatformHost(e.tuning.PlatformRoot) + `/"]`

	out := Attempt(ctx, Step[string]{Name: "company-page", Timeout: e.tuning.LinkWait(), Probe: func(ctx context.Context) (string, bool, error) {
		links, err := e.surface.Elements(ctx, selector)
		if err != nil {
			return "", false, err
		}
		for _, link := range links {
			href, err := link.Attribute(ctx, "href")
			if err != nil || href == "" || IsExcludedCompanyPage(href) {
				continue
			}
			return href, true, nil
		}
		return "", false, nil
	}})
	return e.report("companyFbPage", out)
}

// Website reads the first link into the configured country domain
func (e *Extractor) Website(ctx context.Context, wait time.Duration) string {
	selector := `a[href*="` + e.tuning.WebsiteTLD + `"]`
	out := Attempt(ctx, Step[string]{Name: "website", Timeout: wait, Probe: func(ctx context.Context) (string, bool, error) {
		return firstAttr(ctx, e.surface, selector, "href")
	}})
	return e.report("companyWebsite", out)
}

// IsExcludedCompanyPage reports whether href points at a person, group or event
func IsExcludedCompanyPage(href string) bool {
	for _, ex := range companyPageExclusions {
		if strings.Contains(href, ex) {
			return true
		}
	}
	return false
}

// PlatformHost strips scheme and "www." from root: https://www.facebook.com → facebook.com
func PlatformHost(root string) string {
	host := strings.TrimRight(root, "/")
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	return strings.TrimPrefix(host, "www.")
}
