package search

import (
	"regexp"
	"strings"
)

// CandidateLink is one rendered search-result anchor
type CandidateLink struct {
	Text string
	Href string
}

// MatchStatus reports how the profile link was chosen
type MatchStatus string

const (
	MatchExact    MatchStatus = "exact"
	MatchFallback MatchStatus = "fallback"
	MatchNone     MatchStatus = "none"
)

// Resolution is the resolver's verdict; Index is -1 when nothing matched
type Resolution struct {
	Status MatchStatus
	Index  int
	Link   CandidateLink
}

// Found reports whether a profile link was selected
func (r Resolution) Found() bool {
	return r.Status != MatchNone
}

// Resolver selects the profile link for a target name among candidates.
// Two different people with the same full name are indistinguishable to it.
type Resolver struct {
	bareUsername *regexp.Regexp
}

// NewResolver builds a resolver for profiles hosted under platformRoot,
// e.g. "https://www.facebook.com".
func NewResolver(platformRoot string) *Resolver {
	root := strings.TrimRight(platformRoot, "/")
	return &Resolver{
		bareUsername: regexp.MustCompile(`^` + regexp.QuoteMeta(root) + `/[A-Za-z0-9.]+$`),
	}
}

// Tokens lowercases s and splits it on whitespace
func Tokens(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// NameMatches reports whether text names target exactly, token for token
func NameMatches(target, text string) bool {
	want := Tokens(target)
	got := Tokens(text)
	if len(want) == 0 || len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// ProfileShaped reports whether href looks like a personal profile:
// /profile.php, /people/, or a bare username under the platform root.
func (r *Resolver) ProfileShaped(href string) bool {
	return strings.Contains(href, "/profile.php") ||
		strings.Contains(href, "/people/") ||
		r.bareUsername.MatchString(href)
}

// Resolve picks the first candidate, in document order, whose text names
// target and whose href is profile-shaped. Failing that it falls back to the
// first profile-shaped href regardless of text.
func (r *Resolver) Resolve(target string, candidates []CandidateLink) Resolution {
	fallback := -1

	for i, c := range candidates {
		if !r.ProfileShaped(c.Href) {
			continue
		}
		if NameMatches(target, c.Text) {
			return Resolution{Status: MatchExact, Index: i, Link: c}
		}
		if fallback < 0 {
			fallback = i
		}
	}

	if fallback >= 0 {
		return Resolution{Status: MatchFallback, Index: fallback, Link: candidates[fallback]}
	}
	return Resolution{Status: MatchNone, Index: -1}
}
