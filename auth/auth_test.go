package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/browser"
	"github.com/Nehilsa2/fb_profile_enrichment/config"
	"github.com/Nehilsa2/fb_profile_enrichment/failure"
)

const rootURL = "https://www.facebook.com/"

func loginPage(action string) string {
	return `<html><body><form action="` + action + `">
		<input name="email" type="text">
		<input name="pass" type="password">
		<button name="login">Log in</button>
	</form></body></html>`
}

type memJar struct {
	cookies []browser.Cookie
	err     error
}

func (j *memJar) Cookies(context.Context) ([]browser.Cookie, error) {
	return j.cookies, j.err
}

func (j *memJar) SetCookies(_ context.Context, cookies []browser.Cookie) error {
	j.cookies = append(j.cookies, cookies...)
	return j.err
}

type fixture struct {
	auth   *Authenticator
	jar    *memJar
	cfg    *config.Config
	phases []Phase
}

func newFixture(t *testing.T, pages map[string]string) *fixture {
	t.Helper()
	f := &fixture{
		jar: &memJar{},
		cfg: &config.Config{
			Email:      "agent@example.com.au",
			Password:   "secret",
			CookieFile: filepath.Join(t.TempDir(), "cookies.json"),
			Tuning:     config.DefaultTuning().Fast(),
		},
	}
	session := &browser.Session{Surface: browser.NewSnapshot(pages), Cookies: f.jar, Driver: config.DriverSnapshot}
	f.auth = NewAuthenticator(session, f.cfg, arbor.NewLogger())
	f.auth.OnPhase = func(p Phase) { f.phases = append(f.phases, p) }
	return f
}

func TestAlreadyLoggedIn(t *testing.T) {
	f := newFixture(t, map[string]string{rootURL: `<html><body><div role="feed"></div></body></html>`})

	require.NoError(t, f.auth.EnsureAuthenticated(context.Background()))

	assert.Equal(t, []Phase{PhaseCheckingSession, PhaseAuthenticated}, f.phases)
	_, err := os.Stat(f.cfg.CookieFile)
	assert.True(t, errors.Is(err, os.ErrNotExist), "cookies are only saved after a fresh login")
}

func TestHiddenLoginFormIsNotRequired(t *testing.T) {
	f := newFixture(t, map[string]string{rootURL: `<div hidden>` + loginPage("/home.php") + `</div>`})

	needed, err := f.auth.LoginRequired(context.Background())
	require.NoError(t, err)
	assert.False(t, needed)
}

func TestLoginSucceeds(t *testing.T) {
	f := newFixture(t, map[string]string{
		rootURL:                             loginPage("/home.php"),
		"https://www.facebook.com/home.php": `<html><body><div role="feed"></div></body></html>`,
	})
	f.jar.cookies = []browser.Cookie{{Name: "c_user", Value: "100", Domain: ".facebook.com", Path: "/"}}

	require.NoError(t, f.auth.EnsureAuthenticated(context.Background()))

	assert.Equal(t, []Phase{PhaseCheckingSession, PhaseLoggingIn, PhaseAuthenticated}, f.phases)

	restored := &memJar{}
	n, err := LoadCookies(context.Background(), restored, f.cfg.CookieFile)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "c_user", restored.cookies[0].Name)
}

func TestLoginWithoutCredentials(t *testing.T) {
	f := newFixture(t, map[string]string{rootURL: loginPage("/home.php")})
	f.cfg.Password = ""

	err := f.auth.EnsureAuthenticated(context.Background())

	require.Error(t, err)
	assert.Equal(t, failure.KindConfiguration, failure.KindOf(err))
	assert.True(t, failure.IsFatal(err))
}

func TestRedirectToLoginPageFails(t *testing.T) {
	f := newFixture(t, map[string]string{
		rootURL:                              loginPage("/login.php"),
		"https://www.facebook.com/login.php": loginPage("/login.php"),
	})

	err := f.auth.EnsureAuthenticated(context.Background())

	require.Error(t, err)
	assert.Equal(t, failure.KindSession, failure.KindOf(err))
	assert.NotContains(t, f.phases, PhaseAwaitingChallenge)
}

func TestLoginWrongPasswordPageAwaitsThenFails(t *testing.T) {
	f := newFixture(t, map[string]string{
		rootURL:                            loginPage("/?failed=1"),
		"https://www.facebook.com/?failed=1": loginPage("/?failed=1"),
	})

	err := f.auth.EnsureAuthenticated(context.Background())

	require.Error(t, err)
	assert.Equal(t, failure.KindSession, failure.KindOf(err))
	assert.Contains(t, f.phases, PhaseAwaitingChallenge)
	assert.NotContains(t, f.phases, PhaseAuthenticated)
}

func TestCheckpointAwaitsOperator(t *testing.T) {
	f := newFixture(t, map[string]string{
		rootURL: loginPage("/checkpoint/?next=home"),
		"https://www.facebook.com/checkpoint/?next=home": `<html><body>Confirm your identity</body></html>`,
	})

	err := f.auth.EnsureAuthenticated(context.Background())

	require.Error(t, err)
	assert.Equal(t, failure.KindSession, failure.KindOf(err))
	assert.Equal(t, []Phase{PhaseCheckingSession, PhaseLoggingIn, PhaseAwaitingChallenge}, f.phases)
}

func TestRestrictedAccountFailsWithoutPause(t *testing.T) {
	f := newFixture(t, map[string]string{
		rootURL:                               loginPage("/restricted"),
		"https://www.facebook.com/restricted": `<html><body>Your account is restricted right now.</body></html>`,
	})

	err := f.auth.EnsureAuthenticated(context.Background())

	require.Error(t, err)
	assert.Equal(t, failure.KindSession, failure.KindOf(err))
	assert.NotContains(t, f.phases, PhaseAwaitingChallenge)
}

func TestHomePageUnreachable(t *testing.T) {
	f := newFixture(t, map[string]string{})

	err := f.auth.EnsureAuthenticated(context.Background())

	require.Error(t, err)
	assert.Equal(t, failure.KindSession, failure.KindOf(err))
}

func TestLoadCookiesDropsExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cookies.json")
	src := &memJar{cookies: []browser.Cookie{
		{Name: "session", Value: "a"},
		{Name: "expired", Value: "b", Expires: float64(time.Now().Add(-time.Hour).Unix())},
		{Name: "future", Value: "c", Expires: float64(time.Now().Add(time.Hour).Unix())},
	}}
	require.NoError(t, SaveCookies(context.Background(), src, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dst := &memJar{}
	n, err := LoadCookies(context.Background(), dst, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "session", dst.cookies[0].Name)
	assert.Equal(t, "future", dst.cookies[1].Name)
}

func TestLoadCookiesMissingFile(t *testing.T) {
	_, err := LoadCookies(context.Background(), &memJar{}, filepath.Join(t.TempDir(), "none.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
