// Package auth makes sure the browser holds a logged-in platform session
// before a run starts: saved cookies first, then the login form, with a
// fixed pause for an operator to clear any challenge by hand.
package auth

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/browser"
	"github.com/Nehilsa2/fb_profile_enrichment/config"
	"github.com/Nehilsa2/fb_profile_enrichment/failure"
	"github.com/Nehilsa2/fb_profile_enrichment/stealth"
)

const (
	emailSelector    = `input[name="email"]`
	passwordSelector = `input[name="pass"]`
	loginSelector    = `button[name="login"]`
)

// Phase is a step of session setup
type Phase string

const (
	PhaseCheckingSession   Phase = "CheckingSession"
	PhaseLoggingIn         Phase = "LoggingIn"
	PhaseAwaitingChallenge Phase = "AwaitingChallenge"
	PhaseAuthenticated     Phase = "Authenticated"
)

// Authenticator sets up the session on one browser
type Authenticator struct {
	session *browser.Session
	cfg     *config.Config
	logger  arbor.ILogger

	// OnPhase, when set, is called as each phase begins
	OnPhase func(Phase)
}

func NewAuthenticator(session *browser.Session, cfg *config.Config, logger arbor.ILogger) *Authenticator {
	return &Authenticator{session: session, cfg: cfg, logger: logger}
}

// EnsureAuthenticated guarantees a logged-in session. Every failure is fatal
// for the run: a missing credential is a configuration error, anything else
// a session error.
func (a *Authenticator) EnsureAuthenticated(ctx context.Context) error {
	jar := a.session.Cookies

	if jar != nil && a.cfg.CookieFile != "" {
		n, err := LoadCookies(ctx, jar, a.cfg.CookieFile)
		switch {
		case err == nil && n > 0:
			a.logger.Info().Int("count", n).Str("file", a.cfg.CookieFile).Msg("Cookies loaded")
		case err != nil && !errors.Is(err, os.ErrNotExist):
			a.logger.Warn().Err(err).Msg("Could not load cookies, continuing without them")
		}
	}

	a.enter(PhaseCheckingSession)
	needed, err := a.LoginRequired(ctx)
	if err != nil {
		return err
	}

	if !needed {
		a.logger.Info().Msg("Already logged in")
		a.enter(PhaseAuthenticated)
		return nil
	}

	a.logger.Info().Msg("Login required. Logging in...")
	if err := a.Login(ctx); err != nil {
		return err
	}

	a.enter(PhaseAuthenticated)
	a.logger.Info().Msg("Login successful")

	if jar != nil && a.cfg.CookieFile != "" {
		if err := SaveCookies(ctx, jar, a.cfg.CookieFile); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to save cookies")
		} else {
			a.logger.Info().Str("file", a.cfg.CookieFile).Msg("Cookies saved")
		}
	}
	return nil
}

// LoginRequired opens the platform home page and reports whether the login
// form is showing
func (a *Authenticator) LoginRequired(ctx context.Context) (bool, error) {
	root := strings.TrimRight(a.cfg.Tuning.PlatformRoot, "/") + "/"

	navCtx, cancel := context.WithTimeout(ctx, a.cfg.Tuning.NavigationTimeout())
	defer cancel()
	if err := a.session.Surface.Navigate(navCtx, root); err != nil {
		return false, failure.Wrapf(failure.KindSession, "auth.check", err, "could not open %s", root)
	}
	if err := stealth.Pause(ctx, a.cfg.Tuning.LoginSettle()); err != nil {
		return false, failure.Wrap(failure.KindSession, "auth.check", err)
	}

	return a.loginFormVisible(ctx)
}

func (a *Authenticator) loginFormVisible(ctx context.Context) (bool, error) {
	inputs, err := a.session.Surface.Elements(ctx, emailSelector)
	if err != nil {
		return false, failure.Wrap(failure.KindSession, "auth.check", err)
	}
	for _, in := range inputs {
		if visible, err := in.Visible(ctx); err == nil && visible {
			return true, nil
		}
	}
	return false, nil
}

func (a *Authenticator) enter(p Phase) {
	a.logger.Debug().Str("phase", string(p)).Msg("Session phase")
	if a.OnPhase != nil {
		a.OnPhase(p)
	}
}
