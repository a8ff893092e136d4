package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/humanize"
	"github.com/Nehilsa2/fb_profile_enrichment/stealth"
)

// ChromedpSurface drives Chrome over the DevTools protocol with chromedp.
// Every call runs on the tab context, bounded by the caller's context.
type ChromedpSurface struct {
	tab    context.Context
	rng    *rand.Rand
	mouse  stealth.MouseConfig
	scroll stealth.ScrollConfig
	typist *humanize.Typist
	pos    stealth.Point
	logger arbor.ILogger
}

// LaunchChromedp starts Chrome with the stealth flags and opens one tab.
// The allocator is detached from ctx so the window outlives the run.
func LaunchChromedp(ctx context.Context, headless bool, logger arbor.ILogger) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	profile := stealth.NewProfile(headless, rng)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", profile.Headless),
		chromedp.WindowSize(profile.Viewport.Width, profile.Viewport.Height),
		chromedp.UserAgent(profile.UserAgent),
	)
	for _, f := range stealth.Flags(profile) {
		if f.Name == "user-agent" || f.Name == "window-size" {
			continue
		}
		if f.Value == "" {
			opts = append(opts, chromedp.Flag(f.Name, true))
		} else {
			opts = append(opts, chromedp.Flag(f.Name, f.Value))
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		logger.Debug().Msgf(format, args...)
	}))

	closeAll := func() error {
		tabCancel()
		allocCancel()
		return nil
	}

	logger.Info().
		Str("user_agent", profile.UserAgent).
		Int("width", profile.Viewport.Width).
		Int("height", profile.Viewport.Height).
		Msg("Launching chromedp browser")

	err := chromedp.Run(tab, chromedp.ActionFunc(func(c context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealth.Script).Do(c)
		return err
	}))
	if err != nil {
		_ = closeAll()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	surface := &ChromedpSurface{
		tab:    tab,
		rng:    rng,
		mouse:  stealth.DefaultMouseConfig(),
		scroll: stealth.DefaultScrollConfig(),
		typist: humanize.NewTypist(humanize.CredentialTypingConfig(), rng),
		logger: logger,
	}

	return &Session{
		Surface: surface,
		Cookies: surface,
		Driver:  "chromedp",
		close:   closeAll,
	}, nil
}

// run executes actions on the tab, cancelled when ctx ends
func (s *ChromedpSurface) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Navigate returns after the load event, which follows DOMContentLoaded
func (s *ChromedpSurface) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *ChromedpSurface) WaitLoad(ctx context.Context) error {
	for {
		var state string
		if err := s.run(ctx, chromedp.Evaluate(`document.readyState`, &state)); err != nil {
			return err
		}
		if state == "complete" {
			return nil
		}
		if err := stealth.Pause(ctx, 100*time.Millisecond); err != nil {
			return err
		}
	}
}

func (s *ChromedpSurface) URL() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var location string
	if err := s.run(ctx, chromedp.Location(&location)); err != nil {
		return ""
	}
	return location
}

func (s *ChromedpSurface) Elements(ctx context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	return s.wrap(nodes), nil
}

func (s *ChromedpSurface) wrap(nodes []*cdp.Node) []Element {
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &chromedpElement{node: n, s: s})
	}
	return out
}

// Cookies implements CookieJar
func (s *ChromedpSurface) Cookies(ctx context.Context) ([]Cookie, error) {
	var raw []*network.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(c)
		return err
	}))
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
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite.String(),
		})
	}
	return cookies, nil
}

// SetCookies implements CookieJar
func (s *ChromedpSurface) SetCookies(ctx context.Context, cookies []Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &expires
		}
		switch c.SameSite {
		case "Strict":
			p.SameSite = network.CookieSameSiteStrict
		case "Lax":
			p.SameSite = network.CookieSameSiteLax
		case "None":
			p.SameSite = network.CookieSameSiteNone
		}
		params = append(params, p)
	}

	return s.run(ctx, network.Enable(), chromedp.ActionFunc(func(c context.Context) error {
		return network.SetCookies(params).Do(c)
	}))
}

func (s *ChromedpSurface) viewport(ctx context.Context) (float64, float64) {
	var size []float64
	if err := s.run(ctx, chromedp.Evaluate(`[window.innerWidth, window.innerHeight]`, &size)); err != nil || len(size) != 2 {
		return 1280, 800
	}
	return size[0], size[1]
}

// moveTo dispatches pointer moves along a humanized path to target
func (s *ChromedpSurface) moveTo(ctx context.Context, target stealth.Point) error {
	from := s.pos
	if from.X == 0 && from.Y == 0 {
		w, h := s.viewport(ctx)
		from = stealth.Point{X: w * (0.3 + s.rng.Float64()*0.4), Y: h * (0.3 + s.rng.Float64()*0.4)}
	}

	for _, wp := range stealth.MousePath(s.rng, from, target, s.mouse) {
		err := s.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
			return input.DispatchMouseEvent(input.MouseMoved, wp.X, wp.Y).Do(c)
		}))
		if err != nil {
			return err
		}
		s.pos = wp.Point
		if err := stealth.Pause(ctx, wp.Delay); err != nil {
			return err
		}
	}
	return nil
}

type chromedpElement struct {
	node *cdp.Node
	s    *ChromedpSurface
}

func (e *chromedpElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *chromedpElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.s.run(ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID))
	return text, err
}

func (e *chromedpElement) Attribute(ctx context.Context, name string) (string, error) {
	var (
		value string
		ok    bool
	)
	if err := e.s.run(ctx, chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return value, nil
}

func (e *chromedpElement) Elements(ctx context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := e.s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)))
	if err != nil {
		return nil, err
	}
	return e.s.wrap(nodes), nil
}

func (e *chromedpElement) box(ctx context.Context) (*dom.BoxModel, error) {
	var model *dom.BoxModel
	err := e.s.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		model, err = dom.GetBoxModel().WithNodeID(e.node.NodeID).Do(c)
		return err
	}))
	return model, err
}

// Visible reports whether the element has a rendered, non-empty box
func (e *chromedpElement) Visible(ctx context.Context) (bool, error) {
	model, err := e.box(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return model.Width > 0 && model.Height > 0, nil
}

func (e *chromedpElement) ScrollIntoView(ctx context.Context) error {
	model, err := e.box(ctx)
	if err != nil || len(model.Content) < 8 {
		return e.s.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
			return dom.ScrollIntoViewIfNeeded().WithNodeID(e.node.NodeID).Do(c)
		}))
	}

	w, h := e.s.viewport(ctx)
	distance := stealth.ScrollDistance(model.Content[1], h, e.s.scroll)

	for _, step := range stealth.ScrollPlan(e.s.rng, distance, e.s.scroll) {
		err := e.s.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
			return input.DispatchMouseEvent(input.MouseWheel, w/2, h/2).
				WithDeltaX(0).
				WithDeltaY(float64(step.DeltaY)).
				Do(c)
		}))
		if err != nil {
			return err
		}
		if err := stealth.Pause(ctx, step.Delay); err != nil {
			return err
		}
	}
	return nil
}

func (e *chromedpElement) target(ctx context.Context) (stealth.Point, error) {
	model, err := e.box(ctx)
	if err != nil {
		return stealth.Point{}, err
	}
	if len(model.Content) < 8 {
		return stealth.Point{}, fmt.Errorf("element has no content box")
	}
	return stealth.ClickTarget(e.s.rng, model.Content), nil
}

func (e *chromedpElement) Hover(ctx context.Context) error {
	p, err := e.target(ctx)
	if err != nil {
		return err
	}
	return e.s.moveTo(ctx, p)
}

func (e *chromedpElement) Click(ctx context.Context) error {
	p, err := e.target(ctx)
	if err != nil {
		return e.s.run(ctx, chromedp.MouseClickNode(e.node))
	}

	if err := e.s.moveTo(ctx, p); err != nil {
		return err
	}
	if err := stealth.ReactionPause(ctx, e.s.rng); err != nil {
		return err
	}
	return e.s.run(ctx, chromedp.MouseClickXY(p.X, p.Y))
}

func (e *chromedpElement) Type(ctx context.Context, text string) error {
	if err := e.s.run(ctx, chromedp.Focus(e.ids(), chromedp.ByNodeID)); err != nil {
		return err
	}
	return e.s.typist.Type(ctx, text, func(ctx context.Context, char string) error {
		return e.s.run(ctx, chromedp.KeyEvent(char))
	})
}
