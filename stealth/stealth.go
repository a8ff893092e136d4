package stealth

import (
	"fmt"
	"math/rand"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// Profile is the browser fingerprint presented for one run
type Profile struct {
	Headless  bool
	UserAgent string
	Viewport  Viewport
}

// Viewport represents browser window dimensions
type Viewport struct {
	Width  int
	Height int
}

// Common desktop viewport sizes
var commonViewports = []Viewport{
	{1920, 1080},
	{1366, 768},
	{1536, 864},
	{1440, 900},
	{1600, 900},
	{1920, 1200},
}

var commonUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// NewProfile picks a user agent and a slightly jittered viewport
func NewProfile(headless bool, rng *rand.Rand) Profile {
	vp := commonViewports[rng.Intn(len(commonViewports))]
	vp.Width += rng.Intn(20) - 10
	vp.Height += rng.Intn(20) - 10

	return Profile{
		Headless:  headless,
		UserAgent: commonUserAgents[rng.Intn(len(commonUserAgents))],
		Viewport:  vp,
	}
}

// Flag is one Chrome command-line switch; an empty Value means a bare switch
type Flag struct {
	Name  string
	Value string
}

// Flags returns the anti-automation switches for p, shared by every
// Chrome-backed driver.
func Flags(p Profile) []Flag {
	return []Flag{
		// keeps navigator.webdriver unset
		{Name: "disable-blink-features", Value: "AutomationControlled"},
		{Name: "disable-infobars"},
		{Name: "no-first-run"},
		{Name: "no-default-browser-check"},
		{Name: "disable-dev-shm-usage"},
		{Name: "disable-extensions"},
		{Name: "window-size", Value: fmt.Sprintf("%d,%d", p.Viewport.Width, p.Viewport.Height)},
		{Name: "user-agent", Value: p.UserAgent},
	}
}

// Launcher creates a rod launcher carrying the stealth flags.
// Leakless is off so the browser outlives the process.
func Launcher(p Profile) *launcher.Launcher {
	l := launcher.New()
	for _, f := range Flags(p) {
		if f.Value == "" {
			l = l.Set(flags.Flag(f.Name))
		} else {
			l = l.Set(flags.Flag(f.Name), f.Value)
		}
	}
	return l.Headless(p.Headless).Leakless(false)
}

// ApplyToPage sets the viewport and user agent and injects Script before any
// page script runs. Call it before the first navigation.
func ApplyToPage(page *rod.Page, p Profile) error {
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             p.Viewport.Width,
		Height:            p.Viewport.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: p.UserAgent}); err != nil {
		return fmt.Errorf("failed to set user agent: %w", err)
	}

	if _, err := page.EvalOnNewDocument(Script); err != nil {
		return fmt.Errorf("failed to inject stealth script: %w", err)
	}

	return nil
}

// Script masks the navigator properties automation detectors read first
const Script = `
(() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined, configurable: true });

	Object.defineProperty(navigator, 'languages', { get: () => ['en-AU', 'en'], configurable: true });
	Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => 8, configurable: true });
	Object.defineProperty(navigator, 'deviceMemory', { get: () => 8, configurable: true });
	Object.defineProperty(navigator, 'maxTouchPoints', { get: () => 0, configurable: true });

	Object.defineProperty(navigator, 'plugins', {
		get: () => {
			const list = [
				{ name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
				{ name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai', description: '' },
			];
			list.item = (i) => list[i] || null;
			list.namedItem = (n) => list.find(p => p.name === n) || null;
			list.refresh = () => {};
			return list;
		},
		configurable: true
	});

	window.chrome = window.chrome || {};
	window.chrome.runtime = window.chrome.runtime || {};

	const query = window.navigator.permissions && window.navigator.permissions.query;
	if (query) {
		window.navigator.permissions.query = (params) => (
			params.name === 'notifications'
				? Promise.resolve({ state: Notification.permission })
				: query(params)
		);
	}
})();
`
