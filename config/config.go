// Package config reads the run configuration once at startup.
//
// The resulting Config is a plain value: components receive it (or the part
// they need) explicitly and never read the environment themselves.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/Nehilsa2/fb_profile_enrichment/failure"
)

// Drivers understood by the browser package
const (
	DriverRod      = "rod"
	DriverChromedp = "chromedp"
	DriverSnapshot = "snapshot"
)

const (
	DefaultSheetRange  = "Sheet1"
	DefaultRecordIndex = 2
	DefaultCookieFile  = "cookies.json"
	DefaultJournalPath = "profile_runs.db"
)

type Config struct {
	// SheetID identifies the spreadsheet holding identity records.
	SheetID string
	// APIKey authenticates read access to the sheet.
	APIKey string
	// SheetRange is the A1 range read from the sheet, row 0 being headers.
	SheetRange string
	// RecordIndex selects the one record processed by this run.
	RecordIndex int

	// Email and Password are only needed when the platform asks for a login.
	Email    string
	Password string

	Driver      string
	Headless    bool
	CookieFile  string
	SnapshotDir string

	// JournalPath is the SQLite run journal; empty disables it.
	JournalPath string
	// JournalProfiles also stores each scraped record in the journal.
	JournalProfiles bool

	LogLevel string

	Tuning Tuning
}

// HasCredentials reports whether a login can be attempted
func (c Config) HasCredentials() bool {
	return c.Email != "" && c.Password != ""
}

// Load reads a .env file when present, then the environment.
// A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from environment variables.
func FromEnv() (Config, error) {
	sheetID := strings.TrimSpace(os.Getenv("SHEET_ID"))
	if sheetID == "" {
		return Config{}, failure.New(failure.KindConfiguration, "config", "SHEET_ID is not set")
	}

	apiKey := strings.TrimSpace(os.Getenv("API_KEY"))
	if apiKey == "" {
		return Config{}, failure.New(failure.KindConfiguration, "config", "API_KEY is not set")
	}

	cfg := Config{
		SheetID:     sheetID,
		APIKey:      apiKey,
		SheetRange:  envOr("SHEET_RANGE", DefaultSheetRange),
		RecordIndex: DefaultRecordIndex,
		Email:       os.Getenv("FB_EMAIL"),
		Password:    os.Getenv("FB_PASSWORD"),
		Driver:      strings.ToLower(envOr("BROWSER_DRIVER", DriverRod)),
		CookieFile:  envOr("COOKIE_FILE", DefaultCookieFile),
		SnapshotDir: os.Getenv("SNAPSHOT_DIR"),
		JournalPath: envOr("JOURNAL_DB", DefaultJournalPath),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		Tuning:      DefaultTuning(),
	}

	if v := os.Getenv("JOURNAL_DB"); v == "off" || v == "none" {
		cfg.JournalPath = ""
	}

	if v := os.Getenv("RECORD_INDEX"); v != "" {
		idx, err := strconv.Atoi(v)
		if err != nil || idx < 0 {
			return Config{}, failure.New(failure.KindConfiguration, "config",
				fmt.Sprintf("RECORD_INDEX must be a non-negative integer, got %q", v))
		}
		cfg.RecordIndex = idx
	}

	if v := os.Getenv("JOURNAL_PROFILES"); v != "" {
		keep, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, failure.New(failure.KindConfiguration, "config",
				fmt.Sprintf("JOURNAL_PROFILES must be a boolean, got %q", v))
		}
		cfg.JournalProfiles = keep
	}

	if v := os.Getenv("HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, failure.New(failure.KindConfiguration, "config",
				fmt.Sprintf("HEADLESS must be a boolean, got %q", v))
		}
		cfg.Headless = headless
	}

	switch cfg.Driver {
	case DriverRod, DriverChromedp:
	case DriverSnapshot:
		if cfg.SnapshotDir == "" {
			return Config{}, failure.New(failure.KindConfiguration, "config",
				"SNAPSHOT_DIR is required by the snapshot driver")
		}
	default:
		return Config{}, failure.New(failure.KindConfiguration, "config",
			fmt.Sprintf("unknown BROWSER_DRIVER %q", cfg.Driver))
	}

	if path := os.Getenv("SCRAPER_CONFIG"); path != "" {
		tuning, err := LoadTuning(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Tuning = tuning
	}

	return cfg, nil
}

// LoadTuning decodes a TOML tuning file over DefaultTuning
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()

	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, failure.Wrapf(failure.KindConfiguration, "config", err, "failed to read tuning file %s", path)
	}

	if err := toml.Unmarshal(data, &tuning); err != nil {
		return Tuning{}, failure.Wrapf(failure.KindConfiguration, "config", err, "failed to parse tuning file %s", path)
	}

	return tuning, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
