package extract

import (
	"context"
	"strings"

	"github.com/Nehilsa2/fb_profile_enrichment/browser"
)

// firstAttr reads attr from the first element matching selector
func firstAttr(ctx context.Context, s browser.Surface, selector, attr string) (string, bool, error) {
	els, err := s.Elements(ctx, selector)
	if err != nil || len(els) == 0 {
		return "", false, err
	}
	v, err := els[0].Attribute(ctx, attr)
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// firstText reads the text of the first element matching selector
func firstText(ctx context.Context, s browser.Surface, selector string) (string, bool, error) {
	els, err := s.Elements(ctx, selector)
	if err != nil || len(els) == 0 {
		return "", false, err
	}
	text, err := els[0].Text(ctx)
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// textWhere returns the text of the first element matching selector whose
// text satisfies keep
func textWhere(ctx context.Context, els []browser.Element, keep func(string) bool) (string, browser.Element, error) {
	for _, el := range els {
		text, err := el.Text(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", nil, ctx.Err()
			}
			continue
		}
		if keep(text) {
			return text, el, nil
		}
	}
	return "", nil, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
