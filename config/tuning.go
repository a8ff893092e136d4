package config

import (
	"time"
)

// Tuning holds the site-specific knobs of a run. Waits are in milliseconds so
// the TOML file stays plain integers.
type Tuning struct {
	PlatformRoot       string `toml:"platform_root"`       // e.g. "https://www.facebook.com"
	ProfessionalDomain string `toml:"professional_domain"` // href fragment of professional-network profiles
	PhonePrefix        string `toml:"phone_prefix"`        // accepted tel: prefix, e.g. "+61"
	WebsiteTLD         string `toml:"website_tld"`         // country-local TLD of company websites
	IntroCardSelector  string `toml:"intro_card_selector"` // primary bio container

	NavigationTimeoutMs int `toml:"navigation_timeout_ms"` // navigate + DOMContentLoaded
	SearchSettleMs      int `toml:"search_settle_ms"`      // pause after the results page loads
	ProfileSettleMs     int `toml:"profile_settle_ms"`     // pause after the profile loads
	CompanySettleMs     int `toml:"company_settle_ms"`     // pause after the company page loads

	FriendsWaitMs      int `toml:"friends_wait_ms"`
	VisibilityWaitMs   int `toml:"visibility_wait_ms"`
	LinkWaitMs         int `toml:"link_wait_ms"`          // professional link, email, phone
	BioWaitMs          int `toml:"bio_wait_ms"`           // each of primary and fallback
	CompanyFieldWaitMs int `toml:"company_field_wait_ms"` // fields read during secondary navigation

	LoginSettleMs   int `toml:"login_settle_ms"`
	ChallengeWaitMs int `toml:"challenge_wait_ms"` // operator pause for CAPTCHA / checkpoint
}

// DefaultTuning returns the values the scraper was calibrated with
func DefaultTuning() Tuning {
	return Tuning{
		PlatformRoot:       "https://www.facebook.com",
		ProfessionalDomain: "linkedin.com/in/",
		PhonePrefix:        "+61",
		WebsiteTLD:         ".com.au",
		IntroCardSelector:  `div[data-testid="profile_intro_card"]`,

		NavigationTimeoutMs: 15000,
		SearchSettleMs:      3000,
		ProfileSettleMs:     2000,
		CompanySettleMs:     4000,

		FriendsWaitMs:      500,
		VisibilityWaitMs:   200,
		LinkWaitMs:         200,
		BioWaitMs:          1000,
		CompanyFieldWaitMs: 300,

		LoginSettleMs:   1000,
		ChallengeWaitMs: 90000,
	}
}

func ms(n int) time.Duration {
	if n < 0 {
		return 0
	}
	return time.Duration(n) * time.Millisecond
}

func (t Tuning) NavigationTimeout() time.Duration { return ms(t.NavigationTimeoutMs) }
func (t Tuning) SearchSettle() time.Duration      { return ms(t.SearchSettleMs) }
func (t Tuning) ProfileSettle() time.Duration     { return ms(t.ProfileSettleMs) }
func (t Tuning) CompanySettle() time.Duration     { return ms(t.CompanySettleMs) }
func (t Tuning) FriendsWait() time.Duration       { return ms(t.FriendsWaitMs) }
func (t Tuning) VisibilityWait() time.Duration    { return ms(t.VisibilityWaitMs) }
func (t Tuning) LinkWait() time.Duration          { return ms(t.LinkWaitMs) }
func (t Tuning) BioWait() time.Duration           { return ms(t.BioWaitMs) }
func (t Tuning) CompanyFieldWait() time.Duration  { return ms(t.CompanyFieldWaitMs) }
func (t Tuning) LoginSettle() time.Duration       { return ms(t.LoginSettleMs) }
func (t Tuning) ChallengeWait() time.Duration     { return ms(t.ChallengeWaitMs) }

// Fast returns a copy with every pause and wait shrunk to a few
// milliseconds, for offline replays and tests.
func (t Tuning) Fast() Tuning {
	t.NavigationTimeoutMs = 1000
	t.SearchSettleMs = 0
	t.ProfileSettleMs = 0
	t.CompanySettleMs = 0
	t.FriendsWaitMs = 20
	t.VisibilityWaitMs = 20
	t.LinkWaitMs = 20
	t.BioWaitMs = 20
	t.CompanyFieldWaitMs = 20
	t.LoginSettleMs = 0
	t.ChallengeWaitMs = 0
	return t
}
