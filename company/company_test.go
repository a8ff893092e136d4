package company

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/browser"
	"github.com/Nehilsa2/fb_profile_enrichment/config"
	"github.com/Nehilsa2/fb_profile_enrichment/extract"
	"github.com/Nehilsa2/fb_profile_enrichment/failure"
)

const (
	siteURL = "https://example.com.au/"
	pageURL = "https://www.facebook.com/ExamplePtyLtd"
)

const sitePage = `<html><body>
<span>310 followers</span>
<a href="tel:+61299990000">Call us</a>
<a href="https://www.example.com.au/about">About</a>
<a href="mailto:hello@example.com.au">Email</a>
</body></html>`

const companyFbPage = `<html><body><span>Example Pty Ltd</span><span>4.8K followers</span></body></html>`

func newVisitor(pages map[string]string) *Visitor {
	return NewVisitor(browser.NewSnapshot(pages), config.DefaultTuning().Fast(), arbor.NewLogger())
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com.au"))
	assert.True(t, IsURL("HTTP://example.com.au"))
	assert.False(t, IsURL("Example Pty Ltd"))
	assert.False(t, IsURL("example.com.au"))
	assert.False(t, IsURL(""))
}

func TestNewPlan(t *testing.T) {
	assert.True(t, NewPlan("Example Pty Ltd", "").Empty())
	assert.Equal(t, Plan{PageURL: pageURL}, NewPlan("Example Pty Ltd", pageURL))
	assert.Equal(t, Plan{SiteURL: siteURL}, NewPlan(siteURL, ""))
}

func TestVisitBothSucceed(t *testing.T) {
	v := newVisitor(map[string]string{siteURL: sitePage, pageURL: companyFbPage})

	got, err := v.Visit(context.Background(), Plan{SiteURL: siteURL, PageURL: pageURL})
	require.NoError(t, err)

	assert.Equal(t, extract.CompanyFields{
		Followers: "4.8K followers",
		Phone:     "+61299990000",
		Email:     "hello@example.com.au",
		Website:   "https://www.example.com.au/about",
	}, got)
}

func TestVisitSiteFailureKeepsPageFollowers(t *testing.T) {
	v := newVisitor(map[string]string{pageURL: companyFbPage})

	got, err := v.Visit(context.Background(), Plan{SiteURL: siteURL, PageURL: pageURL})
	require.Error(t, err)

	assert.Equal(t, failure.KindNavigation, failure.KindOf(err))
	assert.False(t, failure.IsFatal(err))
	assert.Equal(t, extract.CompanyFields{Followers: "4.8K followers"}, got)
}

func TestVisitPageFailureKeepsSiteFields(t *testing.T) {
	v := newVisitor(map[string]string{siteURL: sitePage})

	got, err := v.Visit(context.Background(), Plan{SiteURL: siteURL, PageURL: pageURL})
	require.Error(t, err)

	assert.True(t, failure.Is(err, failure.KindNavigation))
	assert.Equal(t, "310 followers", got.Followers)
	assert.Equal(t, "+61299990000", got.Phone)
}

func TestPageWithoutFollowersKeepsSiteValue(t *testing.T) {
	v := newVisitor(map[string]string{
		siteURL: sitePage,
		pageURL: `<html><body><span>Example Pty Ltd</span></body></html>`,
	})

	got, err := v.Visit(context.Background(), Plan{SiteURL: siteURL, PageURL: pageURL})
	require.NoError(t, err)
	assert.Equal(t, "310 followers", got.Followers)
}

func TestPageResolvesRelativeLink(t *testing.T) {
	v := newVisitor(map[string]string{pageURL: companyFbPage})

	followers, err := v.Page(context.Background(), "/ExamplePtyLtd")
	require.NoError(t, err)
	assert.Equal(t, "4.8K followers", followers)
}

func TestVisitEmptyPlan(t *testing.T) {
	v := newVisitor(nil)

	got, err := v.Visit(context.Background(), Plan{})
	assert.NoError(t, err)
	assert.Equal(t, extract.CompanyFields{}, got)
}
