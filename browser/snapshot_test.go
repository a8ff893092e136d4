package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/config"
	"github.com/Nehilsa2/fb_profile_enrichment/failure"
)

const searchPage = `<html><body>
<div role="feed">
  <a href="/ads/about">Sponsored</a>
  <a href="https://www.facebook.com/jane.smith">Jane   Smith</a>
  <div hidden><a href="/hidden">Hidden</a></div>
  <span style="display: none">Friends</span>
</div>
</body></html>`

const profilePage = `<html><body>
<h1>Jane Smith</h1>
<div data-testid="profile_intro_card">
  <div>Intro</div>
  <div>Works at <b>Acme Corp</b></div>
  <p>Lives in Sydney</p>
</div>
<input name="email" value="">
<script>var ignored = "Works at Nowhere";</script>
</body></html>`

func newTestSnapshot() *Snapshot {
	return NewSnapshot(map[string]string{
		"https://www.facebook.com/search/people/?q=Jane": searchPage,
		"https://www.facebook.com/jane.smith":            profilePage,
	})
}

func TestSnapshotNavigateAndQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()

	_, err := s.Elements(ctx, "a")
	assert.ErrorIs(t, err, ErrNoPage)

	require.NoError(t, s.Navigate(ctx, "https://www.facebook.com/search/people/?q=Jane"))
	assert.Equal(t, "https://www.facebook.com/search/people/?q=Jane", s.URL())

	anchors, err := s.Elements(ctx, "a")
	require.NoError(t, err)
	require.Len(t, anchors, 3)

	text, err := anchors[1].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", text)

	href, err := anchors[1].Attribute(ctx, "href")
	require.NoError(t, err)
	assert.Equal(t, "https://www.facebook.com/jane.smith", href)

	missing, err := anchors[1].Attribute(ctx, "data-nope")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSnapshotNavigateUnknownURL(t *testing.T) {
	s := newTestSnapshot()
	err := s.Navigate(context.Background(), "https://acme.example.com")
	require.Error(t, err)
	assert.Empty(t, s.URL())
}

func TestSnapshotVisibility(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	require.NoError(t, s.Navigate(ctx, "https://www.facebook.com/search/people/?q=Jane"))

	anchors, err := s.Elements(ctx, "a")
	require.NoError(t, err)

	visible, err := anchors[1].Visible(ctx)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = anchors[2].Visible(ctx)
	require.NoError(t, err)
	assert.False(t, visible)

	spans, err := s.Elements(ctx, "span")
	require.NoError(t, err)
	visible, err = spans[0].Visible(ctx)
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestSnapshotClickFollowsAnchor(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	require.NoError(t, s.Navigate(ctx, "https://www.facebook.com/search/people/?q=Jane"))

	anchors, err := s.Elements(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, anchors[1].ScrollIntoView(ctx))
	require.NoError(t, anchors[1].Hover(ctx))
	require.NoError(t, anchors[1].Click(ctx))
	require.NoError(t, s.WaitLoad(ctx))

	assert.Equal(t, "https://www.facebook.com/jane.smith", s.URL())
	assert.Equal(t, []string{
		"https://www.facebook.com/search/people/?q=Jane",
		"https://www.facebook.com/jane.smith",
	}, s.Visits)

	// relative hrefs resolve against the current page, which has no snapshot
	require.NoError(t, s.Navigate(ctx, "https://www.facebook.com/search/people/?q=Jane"))
	anchors, err = s.Elements(ctx, "a")
	require.NoError(t, err)
	err = anchors[0].Click(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "https://www.facebook.com/ads/about")
}

func TestSnapshotClickSubmitsForm(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshot(map[string]string{
		"https://www.facebook.com/": `<form action="/home.php">
			<input name="email"><input type="checkbox" name="keep">
			<button name="login">Log in</button></form>`,
		"https://www.facebook.com/home.php": `<p>feed</p>`,
	})
	require.NoError(t, s.Navigate(ctx, "https://www.facebook.com/"))

	inputs, err := s.Elements(ctx, "input")
	require.NoError(t, err)
	for _, in := range inputs {
		require.NoError(t, in.Click(ctx))
	}
	assert.Equal(t, "https://www.facebook.com/", s.URL())

	buttons, err := s.Elements(ctx, `button[name="login"]`)
	require.NoError(t, err)
	require.NoError(t, buttons[0].Click(ctx))
	assert.Equal(t, "https://www.facebook.com/home.php", s.URL())
}

func TestSnapshotInnerText(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	require.NoError(t, s.Navigate(ctx, "https://www.facebook.com/jane.smith"))

	cards, err := s.Elements(ctx, `div[data-testid="profile_intro_card"]`)
	require.NoError(t, err)
	require.Len(t, cards, 1)

	text, err := cards[0].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Intro\nWorks at Acme Corp\nLives in Sydney", text)

	nested, err := cards[0].Elements(ctx, "b")
	require.NoError(t, err)
	require.Len(t, nested, 1)

	body, err := s.Elements(ctx, "body")
	require.NoError(t, err)
	bodyText, err := body[0].Text(ctx)
	require.NoError(t, err)
	assert.NotContains(t, bodyText, "Nowhere")
}

func TestSnapshotType(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot()
	require.NoError(t, s.Navigate(ctx, "https://www.facebook.com/jane.smith"))

	inputs, err := s.Elements(ctx, `input[name="email"]`)
	require.NoError(t, err)
	require.NoError(t, inputs[0].Type(ctx, "jane@"))
	require.NoError(t, inputs[0].Type(ctx, "example.com"))

	value, err := inputs[0].Attribute(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", value)
}

func TestSnapshotHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestSnapshot()
	assert.ErrorIs(t, s.Navigate(ctx, "https://www.facebook.com/jane.smith"), context.Canceled)
}

func TestLoadSnapshotDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profile.html"), []byte(profilePage), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages.toml"), []byte(`
[pages]
"https://www.facebook.com/jane.smith" = "profile.html"
`), 0o644))

	s, err := LoadSnapshotDir(dir)
	require.NoError(t, err)
	require.NoError(t, s.Navigate(context.Background(), "https://www.facebook.com/jane.smith"))

	_, err = LoadSnapshotDir(t.TempDir())
	assert.Error(t, err)
}

func TestOpenSnapshotDriver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages.toml"), []byte("[pages]\n"), 0o644))

	cfg := &config.Config{Driver: config.DriverSnapshot, SnapshotDir: dir}
	session, err := Open(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, config.DriverSnapshot, session.Driver)
	assert.Nil(t, session.Cookies)
	assert.NoError(t, session.Close())

	cfg.SnapshotDir = filepath.Join(dir, "missing")
	_, err = Open(context.Background(), cfg, arbor.NewLogger())
	require.Error(t, err)
	assert.Equal(t, failure.KindSession, failure.KindOf(err))
}
