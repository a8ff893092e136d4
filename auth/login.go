package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nehilsa2/fb_profile_enrichment/browser"
	"github.com/Nehilsa2/fb_profile_enrichment/failure"
	"github.com/Nehilsa2/fb_profile_enrichment/stealth"
)

// Login fills in the login form on the current page and submits it.
//
// A checkpoint, captcha or two-factor page, or a login form that is still
// showing after submit, gets one fixed pause so an operator can finish the
// login in the browser window. The pause is not cut short and not retried.
func (a *Authenticator) Login(ctx context.Context) error {
	if !a.cfg.HasCredentials() {
		return failure.New(failure.KindConfiguration, "auth.login", "missing FB_EMAIL or FB_PASSWORD in .env")
	}

	a.enter(PhaseLoggingIn)
	surface := a.session.Surface

	if err := fill(ctx, surface, emailSelector, a.cfg.Email); err != nil {
		return failure.Wrap(failure.KindSession, "auth.login", err)
	}
	if err := fill(ctx, surface, passwordSelector, a.cfg.Password); err != nil {
		return failure.Wrap(failure.KindSession, "auth.login", err)
	}

	submit, err := first(ctx, surface, loginSelector)
	if err != nil {
		return failure.Wrap(failure.KindSession, "auth.login", err)
	}
	if err := submit.Click(ctx); err != nil {
		return failure.Wrapf(failure.KindSession, "auth.login", err, "failed to submit login form")
	}

	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.Tuning.NavigationTimeout())
	err = surface.WaitLoad(waitCtx)
	cancel()
	if err != nil && ctx.Err() != nil {
		return failure.Wrap(failure.KindSession, "auth.login", ctx.Err())
	}
	if err := stealth.Pause(ctx, a.cfg.Tuning.LoginSettle()); err != nil {
		return failure.Wrap(failure.KindSession, "auth.login", err)
	}

	block := a.detect(ctx)
	if block != nil && !block.Manual {
		return failure.Wrapf(failure.KindSession, "auth.login", block, "login blocked")
	}

	stillOnForm, err := a.loginFormVisible(ctx)
	if err != nil {
		return err
	}

	if block != nil || stillOnForm {
		a.enter(PhaseAwaitingChallenge)
		wait := a.cfg.Tuning.ChallengeWait()
		a.logger.Warn().Str("wait", wait.String()).Msg("If a CAPTCHA or checkpoint appears, please solve it in the browser window")
		if err := stealth.Pause(ctx, wait); err != nil {
			return failure.Wrap(failure.KindSession, "auth.challenge", err)
		}

		if block := a.detect(ctx); block != nil {
			return failure.Wrapf(failure.KindSession, "auth.challenge", block, "challenge not cleared")
		}
		stillOnForm, err = a.loginFormVisible(ctx)
		if err != nil {
			return err
		}
	}

	if stillOnForm {
		return failure.New(failure.KindSession, "auth.login", "login failed, check credentials or CAPTCHA")
	}
	return nil
}

// detect classifies the current page; read failures count as no block
func (a *Authenticator) detect(ctx context.Context) *stealth.Block {
	surface := a.session.Surface

	var text string
	if body, err := first(ctx, surface, "body"); err == nil {
		text, _ = body.Text(ctx)
	}

	block := stealth.Detect(surface.URL(), text)
	if block != nil {
		a.logger.Warn().Str("type", string(block.Type)).Bool("manual", block.Manual).Msg(block.Message)
	}
	return block
}

func fill(ctx context.Context, s browser.Surface, selector, value string) error {
	el, err := first(ctx, s, selector)
	if err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("failed to focus %s: %w", selector, err)
	}
	if err := el.Type(ctx, value); err != nil {
		return fmt.Errorf("failed to type into %s: %w", selector, err)
	}
	return nil
}

func first(ctx context.Context, s browser.Surface, selector string) (browser.Element, error) {
	els, err := s.Elements(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%s not found on %s", selector, strings.TrimSpace(s.URL()))
	}
	return els[0], nil
}
