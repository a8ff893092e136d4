package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/humanize"
	"github.com/Nehilsa2/fb_profile_enrichment/stealth"
)

// RodSurface drives a stealth-configured Chrome through rod. Pointer
// movement, scrolling and typing are humanized.
type RodSurface struct {
	browser *rod.Browser
	page    *rod.Page
	rng     *rand.Rand
	mouse   stealth.MouseConfig
	scroll  stealth.ScrollConfig
	typist  *humanize.Typist
	logger  arbor.ILogger
}

// LaunchRod starts Chrome with the stealth profile and opens one page
func LaunchRod(ctx context.Context, headless bool, logger arbor.ILogger) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	profile := stealth.NewProfile(headless, rng)

	logger.Info().
		Str("user_agent", profile.UserAgent).
		Int("width", profile.Viewport.Width).
		Int("height", profile.Viewport.Height).
		Msg("Launching stealth browser")

	controlURL, err := stealth.Launcher(profile).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if err := stealth.ApplyToPage(page, profile); err != nil {
		_ = b.Close()
		return nil, err
	}

	surface := &RodSurface{
		browser: b,
		page:    page,
		rng:     rng,
		mouse:   stealth.DefaultMouseConfig(),
		scroll:  stealth.DefaultScrollConfig(),
		typist:  humanize.NewTypist(humanize.CredentialTypingConfig(), rng),
		logger:  logger,
	}

	return &Session{
		Surface: surface,
		Cookies: surface,
		Driver:  "rod",
		close:   b.Close,
	}, nil
}

func (s *RodSurface) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx)

	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	wait()

	return ctx.Err()
}

func (s *RodSurface) WaitLoad(ctx context.Context) error {
	return s.page.Context(ctx).WaitLoad()
}

func (s *RodSurface) URL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (s *RodSurface) Elements(ctx context.Context, selector string) ([]Element, error) {
	found, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return s.wrap(found), nil
}

func (s *RodSurface) wrap(found rod.Elements) []Element {
	out := make([]Element, 0, len(found))
	for _, el := range found {
		out = append(out, &rodElement{el: el, s: s})
	}
	return out
}

// Cookies implements CookieJar
func (s *RodSurface) Cookies(ctx context.Context) ([]Cookie, error) {
	raw, err := s.browser.Context(ctx).GetCookies()
	if err != nil {
		return nil, err
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: string(c.SameSite),
		})
	}
	return cookies, nil
}

// SetCookies implements CookieJar
func (s *RodSurface) SetCookies(ctx context.Context, cookies []Cookie) error {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  proto.TimeSinceEpoch(c.Expires),
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: proto.NetworkCookieSameSite(c.SameSite),
		})
	}
	return s.browser.Context(ctx).SetCookies(params)
}

// moveTo walks the pointer along a humanized path to target
func (s *RodSurface) moveTo(ctx context.Context, target stealth.Point) error {
	mouse := s.page.Mouse

	pos := mouse.Position()
	from := stealth.Point{X: pos.X, Y: pos.Y}
	if from.X == 0 && from.Y == 0 {
		from = s.randomViewportPoint(ctx)
	}

	for _, wp := range stealth.MousePath(s.rng, from, target, s.mouse) {
		if err := mouse.MoveTo(proto.Point{X: wp.X, Y: wp.Y}); err != nil {
			return err
		}
		if err := stealth.Pause(ctx, wp.Delay); err != nil {
			return err
		}
	}
	return nil
}

// randomViewportPoint picks a start point in the middle 40% of the viewport
func (s *RodSurface) randomViewportPoint(ctx context.Context) stealth.Point {
	width, height := s.viewport(ctx)
	return stealth.Point{
		X: width * (0.3 + s.rng.Float64()*0.4),
		Y: height * (0.3 + s.rng.Float64()*0.4),
	}
}

func (s *RodSurface) viewport(ctx context.Context) (float64, float64) {
	res, err := s.page.Context(ctx).Eval(`() => ({ w: window.innerWidth, h: window.innerHeight })`)
	if err != nil {
		return 1280, 800
	}
	return res.Value.Get("w").Num(), res.Value.Get("h").Num()
}

type rodElement struct {
	el *rod.Element
	s  *RodSurface
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

func (e *rodElement) Elements(ctx context.Context, selector string) ([]Element, error) {
	found, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return e.s.wrap(found), nil
}

func (e *rodElement) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

// ScrollIntoView wheels the page in eased steps until the element sits in
// the upper third of the viewport.
func (e *rodElement) ScrollIntoView(ctx context.Context) error {
	el := e.el.Context(ctx)

	shape, err := el.Shape()
	if err != nil || shape == nil || len(shape.Quads) == 0 {
		e.s.logger.Debug().Err(err).Msg("No box model, using native scroll")
		return el.ScrollIntoView()
	}

	_, height := e.s.viewport(ctx)
	distance := stealth.ScrollDistance(shape.Quads[0][1], height, e.s.scroll)

	mouse := e.s.page.Mouse
	for _, step := range stealth.ScrollPlan(e.s.rng, distance, e.s.scroll) {
		if err := mouse.Scroll(0, float64(step.DeltaY), 1); err != nil {
			return el.ScrollIntoView()
		}
		if err := stealth.Pause(ctx, step.Delay); err != nil {
			return err
		}
	}
	return nil
}

func (e *rodElement) Hover(ctx context.Context) error {
	shape, err := e.el.Context(ctx).Shape()
	if err != nil || shape == nil || len(shape.Quads) == 0 {
		return e.el.Context(ctx).Hover()
	}
	return e.s.moveTo(ctx, stealth.ClickTarget(e.s.rng, shape.Quads[0]))
}

func (e *rodElement) Click(ctx context.Context) error {
	shape, err := e.el.Context(ctx).Shape()
	if err != nil || shape == nil || len(shape.Quads) == 0 {
		return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
	}

	if err := e.s.moveTo(ctx, stealth.ClickTarget(e.s.rng, shape.Quads[0])); err != nil {
		return err
	}
	if err := stealth.ReactionPause(ctx, e.s.rng); err != nil {
		return err
	}
	return e.s.page.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Type(ctx context.Context, text string) error {
	el := e.el.Context(ctx)
	if err := el.Focus(); err != nil {
		return err
	}
	return e.s.typist.Type(ctx, text, func(ctx context.Context, char string) error {
		return e.el.Context(ctx).Input(char)
	})
}
