// Package persistence keeps a SQLite journal of enrichment runs: every state
// transition and the final profile record of each run.
package persistence

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	DefaultDBPath = "fb_enrichment.db"
)

// Store handles all persistence operations using SQLite
type Store struct {
	db     *sql.DB
	dbPath string

	// saveProfiles keeps the scraped record in profiles; off by default
	saveProfiles bool
}

// NewStore opens (or creates) the journal at dbPath
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer; keeps the WAL pragma and every statement on one connection
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path is the database file the store writes to
func (s *Store) Path() string {
	return s.dbPath
}

// initTables creates all required tables
func (s *Store) initTables() error {
	tables := []string{
		// One row per run, updated on every transition
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			target TEXT NOT NULL,
			state TEXT NOT NULL,
			match TEXT,
			matched_href TEXT,
			started_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			finished_at DATETIME
		)`,

		`CREATE TABLE IF NOT EXISTS run_transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			at DATETIME NOT NULL
		)`,

		// Final records; data holds the full JSON, a few columns are lifted out for lookups
		`CREATE TABLE IF NOT EXISTS profiles (
			run_id TEXT PRIMARY KEY,
			target TEXT NOT NULL,
			match TEXT NOT NULL,
			matched_href TEXT,
			email TEXT,
			phone TEXT,
			company TEXT,
			data TEXT NOT NULL,
			saved_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS daily_stats (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date DATE UNIQUE NOT NULL,
			runs_started INTEGER DEFAULT 0,
			profiles_matched INTEGER DEFAULT 0,
			profiles_unmatched INTEGER DEFAULT 0
		)`,
	}

	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_run_transitions_run ON run_transitions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_target ON profiles(target)`,
	}

	for _, idx := range indexes {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Transaction executes a function within a database transaction
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// getTodayDate returns today's date in YYYY-MM-DD format
func getTodayDate() string {
	return time.Now().Format("2006-01-02")
}

// incrementDailyStat increments a daily statistic
func (s *Store) incrementDailyStat(tx *sql.Tx, field string) error {
	if _, err := tx.Exec(`INSERT OR IGNORE INTO daily_stats (date) VALUES (?)`, getTodayDate()); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE daily_stats SET %s = %s + 1 WHERE date = ?
	`, field, field)

	_, err := tx.Exec(query, getTodayDate())
	return err
}

// DailyStats counts runs and their outcomes for one day
type DailyStats struct {
	Date              string `json:"date"`
	RunsStarted       int    `json:"runs_started"`
	ProfilesMatched   int    `json:"profiles_matched"`
	ProfilesUnmatched int    `json:"profiles_unmatched"`
}

// GetTodayStats returns today's counters, zero when nothing ran yet
func (s *Store) GetTodayStats() (*DailyStats, error) {
	stats := &DailyStats{Date: getTodayDate()}

	err := s.db.QueryRow(`
		SELECT runs_started, profiles_matched, profiles_unmatched
		FROM daily_stats WHERE date = ?
	`, stats.Date).Scan(&stats.RunsStarted, &stats.ProfilesMatched, &stats.ProfilesUnmatched)

	if err == sql.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read daily stats: %w", err)
	}
	return stats, nil
}
