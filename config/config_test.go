package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nehilsa2/fb_profile_enrichment/failure"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SHEET_ID", "sheet-123")
	t.Setenv("API_KEY", "key-abc")
	for _, key := range []string{"SHEET_RANGE", "RECORD_INDEX", "FB_EMAIL", "FB_PASSWORD",
		"BROWSER_DRIVER", "HEADLESS", "COOKIE_FILE", "JOURNAL_DB", "JOURNAL_PROFILES", "SCRAPER_CONFIG", "SNAPSHOT_DIR"} {
		t.Setenv(key, "")
	}
}

func TestFromEnvMissingSheetID(t *testing.T) {
	t.Setenv("SHEET_ID", "")
	t.Setenv("API_KEY", "key-abc")

	_, err := FromEnv()
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindConfiguration))
	assert.Contains(t, err.Error(), "SHEET_ID")
}

func TestFromEnvMissingAPIKey(t *testing.T) {
	t.Setenv("SHEET_ID", "sheet-123")
	t.Setenv("API_KEY", "  ")

	_, err := FromEnv()
	require.Error(t, err)
	assert.True(t, failure.IsFatal(err))
	assert.Contains(t, err.Error(), "API_KEY")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", cfg.SheetID)
	assert.Equal(t, "key-abc", cfg.APIKey)
	assert.Equal(t, DefaultSheetRange, cfg.SheetRange)
	assert.Equal(t, DefaultRecordIndex, cfg.RecordIndex)
	assert.Equal(t, DriverRod, cfg.Driver)
	assert.False(t, cfg.Headless)
	assert.False(t, cfg.HasCredentials())
	assert.Equal(t, DefaultJournalPath, cfg.JournalPath)
	assert.False(t, cfg.JournalProfiles)
	assert.Equal(t, DefaultTuning(), cfg.Tuning)
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RECORD_INDEX", "0")
	t.Setenv("HEADLESS", "true")
	t.Setenv("BROWSER_DRIVER", "ChromeDP")
	t.Setenv("FB_EMAIL", "me@example.com")
	t.Setenv("FB_PASSWORD", "secret")
	t.Setenv("JOURNAL_DB", "off")
	t.Setenv("JOURNAL_PROFILES", "1")
	t.Setenv("SCRAPER_CONFIG", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.RecordIndex)
	assert.True(t, cfg.Headless)
	assert.Equal(t, DriverChromedp, cfg.Driver)
	assert.True(t, cfg.HasCredentials())
	assert.Empty(t, cfg.JournalPath)
	assert.True(t, cfg.JournalProfiles)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"negative index":  {"RECORD_INDEX", "-1"},
		"non-numeric":     {"RECORD_INDEX", "third"},
		"bad bool":        {"HEADLESS", "maybe"},
		"bad journal":     {"JOURNAL_PROFILES", "sometimes"},
		"unknown driver":  {"BROWSER_DRIVER", "selenium"},
		"snapshot no dir": {"BROWSER_DRIVER", "snapshot"},
		"missing tuning":  {"SCRAPER_CONFIG", filepath.Join(t.TempDir(), "absent.toml")},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(kv[0], kv[1])

			_, err := FromEnv()
			require.Error(t, err)
			assert.Equal(t, failure.KindConfiguration, failure.KindOf(err))
		})
	}
}

func TestLoadTuningOverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.toml")
	content := `
phone_prefix = "+64"
website_tld = ".co.nz"
challenge_wait_ms = 5000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tuning, err := LoadTuning(path)
	require.NoError(t, err)

	assert.Equal(t, "+64", tuning.PhonePrefix)
	assert.Equal(t, ".co.nz", tuning.WebsiteTLD)
	assert.Equal(t, 5*time.Second, tuning.ChallengeWait())
	assert.Equal(t, "https://www.facebook.com", tuning.PlatformRoot)
	assert.Equal(t, 15*time.Second, tuning.NavigationTimeout())
}

func TestLoadTuningInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("phone_prefix = "), 0o644))

	_, err := LoadTuning(path)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindConfiguration))
}

func TestFastTuning(t *testing.T) {
	fast := DefaultTuning().Fast()
	assert.Equal(t, time.Duration(0), fast.ChallengeWait())
	assert.Equal(t, 20*time.Millisecond, fast.BioWait())
	assert.Equal(t, DefaultTuning().PhonePrefix, fast.PhonePrefix)
}
