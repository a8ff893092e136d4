package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/browser"
	"github.com/Nehilsa2/fb_profile_enrichment/config"
)

const profileURL = "https://www.facebook.com/jane.smith"

const richProfile = `<html><body>
<nav><a href="https://www.facebook.com/jane.smith/friends/"><span>Friends</span> <strong>1.2K</strong></a></nav>
<div data-testid="profile_intro_card">
  <div>Intro</div>
  <div>Works at Example Pty Ltd</div>
  <div>Lives in Sydney</div>
  <div>Married</div>
</div>
<span>2,345 followers</span>
<a href="https://www.linkedin.com/in/janesmith">LinkedIn</a>
<a href="mailto:jane@example.com.au">Email</a>
<a href="tel:+61400111222">Call</a>
<a href="https://www.facebook.com/groups/realestate">Group</a>
<a href="https://www.facebook.com/ExamplePtyLtd">Example Pty Ltd</a>
<a href="https://example.com.au">Site</a>
</body></html>`

const sparseProfile = `<html><body>
<a href="/jane.smith/friends/?section=mutual"><strong>friends</strong><strong>87</strong></a>
<div><div>About</div><div>Intro</div><div>Studied at UNSW</div></div>
<a href="tel:+1555010999">Call</a>
<span hidden>Single</span>
<span>Engaged</span>
</body></html>`

const labelProfile = `<html><body>
<span>348 friends</span>
<a href="https://www.facebook.com/people/Jane-Smith/1000/">Jane</a>
</body></html>`

func newExtractor(t *testing.T, html string) *Extractor {
	t.Helper()
	s := browser.NewSnapshot(map[string]string{profileURL: html})
	require.NoError(t, s.Navigate(context.Background(), profileURL))
	return NewExtractor(s, config.DefaultTuning().Fast(), arbor.NewLogger())
}

func TestProfileFieldsFromRichPage(t *testing.T) {
	e := newExtractor(t, richProfile)

	got := e.Profile(context.Background())

	assert.Equal(t, "1.2K", got.Friends)
	assert.Equal(t, "Yes", got.FriendsListVisible)
	assert.Equal(t, "https://www.linkedin.com/in/janesmith", got.LinkedIn)
	assert.Equal(t, "jane@example.com.au", got.Email)
	assert.Equal(t, "+61400111222", got.Phone)
	assert.Equal(t, "Intro\nWorks at Example Pty Ltd\nLives in Sydney\nMarried", got.Bio)
	assert.Equal(t, "2,345 followers", got.Followers)
	assert.Equal(t, "https://www.facebook.com/jane.smith/friends/", got.CompanyPage)
}

func TestProfileFieldsFallbacks(t *testing.T) {
	e := newExtractor(t, sparseProfile)
	ctx := context.Background()

	assert.Equal(t, "87", e.Friends(ctx))
	assert.Equal(t, "Yes", e.FriendsListVisible(ctx))
	assert.Equal(t, "", e.Phone(ctx, 20*time.Millisecond), "non-local number is dropped")
	assert.Equal(t, "About\nIntro\nStudied at UNSW", e.Bio(ctx))
	assert.Equal(t, "Engaged", e.Relationship(ctx))
}

func TestFriendsFromLabel(t *testing.T) {
	e := newExtractor(t, labelProfile)
	ctx := context.Background()

	assert.Equal(t, "348", e.Friends(ctx))
	assert.Equal(t, "No", e.FriendsListVisible(ctx))
	assert.Equal(t, "", e.CompanyPage(ctx), "people/ links are not company pages")
}

func TestFriendsListVisibleChecksFirstLinkOnly(t *testing.T) {
	hiddenFirst := newExtractor(t, `<html><body>
		<a hidden href="/jane.smith/friends/">Friends</a>
		<a href="/jane.smith/friends_mutual/">Mutual friends</a>
	</body></html>`)
	assert.Equal(t, "No", hiddenFirst.FriendsListVisible(context.Background()))

	visibleFirst := newExtractor(t, `<html><body>
		<a href="/jane.smith/about/">About</a>
		<a href="/jane.smith/friends/">Friends</a>
		<a style="display:none" href="/jane.smith/friends_mutual/">Mutual friends</a>
	</body></html>`)
	assert.Equal(t, "Yes", visibleFirst.FriendsListVisible(context.Background()))
}

func TestMissingFieldsAreEmptyWithinBound(t *testing.T) {
	e := newExtractor(t, `<html><body><p>nothing here</p></body></html>`)

	start := time.Now()
	got := e.Profile(context.Background())
	elapsed := time.Since(start)

	assert.Equal(t, ProfileFields{FriendsListVisible: "No"}, got)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, "", e.Relationship(context.Background()))
}

func TestCompanyFields(t *testing.T) {
	page := `<html><body>
	<span>12K followers</span>
	<a href="tel:+61299990000">Phone</a>
	<a href="https://www.example.com.au/contact">Website</a>
	<a href="mailto:info@example.com.au">Mail</a>
	</body></html>`
	e := newExtractor(t, page)

	got := e.Company(context.Background())

	assert.Equal(t, CompanyFields{
		Followers: "12K followers",
		Phone:     "+61299990000",
		Email:     "info@example.com.au",
		Website:   "https://www.example.com.au/contact",
	}, got)
}

func TestExtractorsOnCancelledContext(t *testing.T) {
	e := newExtractor(t, richProfile)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, ProfileFields{FriendsListVisible: "No"}, e.Profile(ctx))
}

func TestIsExcludedCompanyPage(t *testing.T) {
	assert.True(t, IsExcludedCompanyPage("https://www.facebook.com/profile.php?id=1"))
	assert.True(t, IsExcludedCompanyPage("https://www.facebook.com/people/X/1"))
	assert.True(t, IsExcludedCompanyPage("https://www.facebook.com/groups/1"))
	assert.True(t, IsExcludedCompanyPage("https://www.facebook.com/events/1"))
	assert.False(t, IsExcludedCompanyPage("https://www.facebook.com/AcmeRealty"))
}

func TestPlatformHost(t *testing.T) {
	assert.Equal(t, "facebook.com", PlatformHost("https://www.facebook.com"))
	assert.Equal(t, "facebook.com", PlatformHost("https://www.facebook.com/"))
	assert.Equal(t, "m.facebook.com", PlatformHost("https://m.facebook.com"))
}
