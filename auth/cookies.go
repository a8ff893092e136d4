package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Nehilsa2/fb_profile_enrichment/browser"
)

// SaveCookies writes the browser's cookies to path as JSON
func SaveCookies(ctx context.Context, jar browser.CookieJar, path string) error {
	cookies, err := jar.Cookies(ctx)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	// cookies are credentials
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(cookies)
}

// LoadCookies restores cookies saved by SaveCookies, dropping expired ones.
// It returns how many were set.
func LoadCookies(ctx context.Context, jar browser.CookieJar, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var cookies []browser.Cookie
	if err := json.NewDecoder(file).Decode(&cookies); err != nil {
		return 0, fmt.Errorf("invalid cookie file %s: %w", path, err)
	}

	now := float64(time.Now().Unix())
	live := make([]browser.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c.Expires > 0 && c.Expires < now {
			continue
		}
		live = append(live, c)
	}

	if len(live) == 0 {
		return 0, nil
	}
	return len(live), jar.SetCookies(ctx, live)
}
