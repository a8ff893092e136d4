// Package browser exposes the one navigable page a run works on.
//
// Three drivers implement Surface: rod (default, stealth launcher and
// humanized input), chromedp, and snapshot (goquery over saved HTML, used for
// offline replays and tests). Queries never wait; bounded waiting is the
// caller's job (see package extract).
package browser

import (
	"context"
	"errors"
)

// ErrNoPage is returned by queries issued before any navigation
var ErrNoPage = errors.New("browser: no page loaded")

// Surface is the navigable browsing context owned by a run.
// It is not safe for concurrent use.
type Surface interface {
	// Navigate loads url and returns once the DOM content has loaded or ctx ends.
	Navigate(ctx context.Context, url string) error
	// WaitLoad waits for the current page's load signal, e.g. after a click.
	WaitLoad(ctx context.Context) error
	// URL reports the address of the current page.
	URL() string
	// Elements returns every element matching a CSS selector, in document order.
	Elements(ctx context.Context, selector string) ([]Element, error)
}

// Element is a handle on one DOM element of the current page
type Element interface {
	// Text is the rendered (inner) text.
	Text(ctx context.Context) (string, error)
	// Attribute returns the raw attribute value, "" when absent.
	Attribute(ctx context.Context, name string) (string, error)
	Elements(ctx context.Context, selector string) ([]Element, error)
	Visible(ctx context.Context) (bool, error)
	ScrollIntoView(ctx context.Context) error
	Hover(ctx context.Context) error
	Click(ctx context.Context) error
	// Type enters text into an input element.
	Type(ctx context.Context, text string) error
}

// Session bundles a Surface with the driver resources behind it
type Session struct {
	Surface Surface
	// Cookies is nil for drivers without a cookie store.
	Cookies CookieJar
	Driver  string

	close func() error
}

// Close releases the browser. Runs normally leave it open for inspection.
func (s *Session) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// CookieJar reads and writes the browser's cookie store
type CookieJar interface {
	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
}

// Cookie is a driver-neutral browser cookie; Expires is seconds since the
// epoch, 0 for session cookies.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"httpOnly"`
	SameSite string  `json:"sameSite,omitempty"`
}
