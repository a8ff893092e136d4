package browser

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/net/html"
)

// Snapshot replays saved HTML pages keyed by URL. Clicking an anchor follows
// its href to another saved page; a URL with no saved page fails to navigate
// like an unreachable site would.
type Snapshot struct {
	pages   map[string]string
	current string
	doc     *goquery.Document

	// Visits records every successful navigation in order.
	Visits []string
}

// NewSnapshot creates a snapshot surface over url → HTML pages
func NewSnapshot(pages map[string]string) *Snapshot {
	copied := make(map[string]string, len(pages))
	for k, v := range pages {
		copied[k] = v
	}
	return &Snapshot{pages: copied}
}

type snapshotManifest struct {
	Pages map[string]string `toml:"pages"` // url = "file.html"
}

// LoadSnapshotDir reads dir/pages.toml and the HTML files it names
func LoadSnapshotDir(dir string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, "pages.toml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot manifest: %w", err)
	}

	var manifest snapshotManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot manifest: %w", err)
	}

	pages := make(map[string]string, len(manifest.Pages))
	for pageURL, file := range manifest.Pages {
		body, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot page %s: %w", file, err)
		}
		pages[pageURL] = string(body)
	}

	return NewSnapshot(pages), nil
}

func (s *Snapshot) Navigate(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, ok := s.pages[target]
	if !ok {
		return fmt.Errorf("snapshot: no page saved for %s", target)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("snapshot: failed to parse %s: %w", target, err)
	}

	s.doc = doc
	s.current = target
	s.Visits = append(s.Visits, target)
	return nil
}

func (s *Snapshot) WaitLoad(ctx context.Context) error {
	return ctx.Err()
}

func (s *Snapshot) URL() string {
	return s.current
}

func (s *Snapshot) Elements(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.doc == nil {
		return nil, ErrNoPage
	}
	return s.wrap(s.doc.Find(selector)), nil
}

func (s *Snapshot) wrap(sel *goquery.Selection) []Element {
	var out []Element
	sel.Each(func(_ int, item *goquery.Selection) {
		out = append(out, &snapshotElement{sel: item, owner: s})
	})
	return out
}

func (s *Snapshot) resolve(href string) string {
	base, err := url.Parse(s.current)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

type snapshotElement struct {
	sel   *goquery.Selection
	owner *Snapshot
}

func (e *snapshotElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return innerText(e.sel), nil
}

func (e *snapshotElement) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, _ := e.sel.Attr(name)
	return v, nil
}

func (e *snapshotElement) Elements(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.owner.wrap(e.sel.Find(selector)), nil
}

// Visible is false when the element or an ancestor is hidden by attribute or
// inline style.
func (e *snapshotElement) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for node := e.sel; node.Length() > 0; node = node.Parent() {
		if _, hidden := node.Attr("hidden"); hidden {
			return false, nil
		}
		style, _ := node.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false, nil
		}
	}
	return true, nil
}

func (e *snapshotElement) ScrollIntoView(ctx context.Context) error {
	return ctx.Err()
}

func (e *snapshotElement) Hover(ctx context.Context) error {
	return ctx.Err()
}

// Click follows anchors and submits the enclosing form of a submit button
// to its action. Other elements ignore clicks.
func (e *snapshotElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var target string
	switch goquery.NodeName(e.sel) {
	case "a":
		target, _ = e.sel.Attr("href")
	case "button", "input":
		kind, ok := e.sel.Attr("type")
		if !ok && goquery.NodeName(e.sel) == "button" {
			kind = "submit"
		}
		if kind != "submit" {
			return nil
		}
		target, _ = e.sel.Closest("form").Attr("action")
	}

	if target == "" {
		return nil
	}
	return e.owner.Navigate(ctx, e.owner.resolve(target))
}

func (e *snapshotElement) Type(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	current, _ := e.sel.Attr("value")
	e.sel.SetAttr("value", current+text)
	return nil
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"div": true, "dl": true, "dt": true, "dd": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "section": true, "table": true, "tr": true, "ul": true,
}

// innerText approximates the browser's innerText: block elements break lines,
// whitespace inside a line collapses, blank lines are dropped.
func innerText(sel *goquery.Selection) string {
	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteString("\n")
		}
	}

	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
