package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/pipeline"
	"github.com/Nehilsa2/fb_profile_enrichment/search"
)

// ==================== RUNS ====================

// Run is the journal row of one enrichment run
type Run struct {
	ID          uuid.UUID          `json:"id"`
	Target      string             `json:"target"`
	State       pipeline.State     `json:"state"`
	Match       search.MatchStatus `json:"match,omitempty"`
	MatchedHref string             `json:"matched_href,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	FinishedAt  *time.Time         `json:"finished_at,omitempty"`
}

// RecordTransition stores one state change, creating the run row on the
// run's first transition
func (s *Store) RecordTransition(t pipeline.Transition) error {
	at := t.At
	if at.IsZero() {
		at = time.Now()
	}

	return s.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT OR IGNORE INTO runs (id, target, state, started_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, t.RunID.String(), t.Target, string(t.To), at, at)
		if err != nil {
			return fmt.Errorf("failed to create run: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			if err := s.incrementDailyStat(tx, "runs_started"); err != nil {
				return fmt.Errorf("failed to count run: %w", err)
			}
		}

		finished := sql.NullTime{}
		if t.To.Terminal() {
			finished = sql.NullTime{Time: at, Valid: true}
		}

		if _, err := tx.Exec(`
			UPDATE runs SET state = ?, updated_at = ?, finished_at = COALESCE(?, finished_at)
			WHERE id = ?
		`, string(t.To), at, finished, t.RunID.String()); err != nil {
			return fmt.Errorf("failed to update run state: %w", err)
		}

		if _, err := tx.Exec(`
			INSERT INTO run_transitions (run_id, from_state, to_state, at)
			VALUES (?, ?, ?, ?)
		`, t.RunID.String(), string(t.From), string(t.To), at); err != nil {
			return fmt.Errorf("failed to save transition: %w", err)
		}
		return nil
	})
}

// Observer adapts RecordTransition to a pipeline observer. A journal write
// failure is logged and never interrupts the run.
func (s *Store) Observer(logger arbor.ILogger) pipeline.Observer {
	return func(t pipeline.Transition) {
		if err := s.RecordTransition(t); err != nil {
			logger.Warn().Err(err).Str("to", string(t.To)).Msg("Failed to journal transition")
		}
	}
}

// GetRun returns the run row, nil when unknown
func (s *Store) GetRun(runID uuid.UUID) (*Run, error) {
	var (
		run        Run
		id         string
		state      string
		match      sql.NullString
		href       sql.NullString
		finishedAt sql.NullTime
	)

	err := s.db.QueryRow(`
		SELECT id, target, state, match, matched_href, started_at, updated_at, finished_at
		FROM runs WHERE id = ?
	`, runID.String()).Scan(&id, &run.Target, &state, &match, &href, &run.StartedAt, &run.UpdatedAt, &finishedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt run id %q: %w", id, err)
	}
	run.State = pipeline.State(state)
	run.Match = search.MatchStatus(match.String)
	run.MatchedHref = href.String
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

// GetTransitions returns a run's transitions in the order they happened
func (s *Store) GetTransitions(runID uuid.UUID) ([]pipeline.Transition, error) {
	rows, err := s.db.Query(`
		SELECT r.target, t.from_state, t.to_state, t.at
		FROM run_transitions t JOIN runs r ON r.id = t.run_id
		WHERE t.run_id = ?
		ORDER BY t.id ASC
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get transitions: %w", err)
	}
	defer rows.Close()

	var transitions []pipeline.Transition
	for rows.Next() {
		var from, to string
		t := pipeline.Transition{RunID: runID}
		if err := rows.Scan(&t.Target, &from, &to, &t.At); err != nil {
			return nil, err
		}
		t.From = pipeline.State(from)
		t.To = pipeline.State(to)
		transitions = append(transitions, t)
	}

	return transitions, rows.Err()
}

// ==================== PROFILES ====================

// StoredProfile is a saved final record
type StoredProfile struct {
	RunID       uuid.UUID            `json:"run_id"`
	Target      string               `json:"target"`
	Match       search.MatchStatus   `json:"match"`
	MatchedHref string               `json:"matched_href,omitempty"`
	Profile     pipeline.ProfileData `json:"profile"`
	SavedAt     time.Time            `json:"saved_at"`
}

// Emit records the outcome of a run, and its final record when profiles are
// saved. It makes the store a pipeline.Sink.
func (s *Store) Emit(ctx context.Context, res *pipeline.Result) error {
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if s.saveProfiles {
		if err := saveProfile(ctx, tx, res, now); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE runs SET match = ?, matched_href = ?, updated_at = ? WHERE id = ?
	`, string(res.Match), res.MatchedHref, now, res.RunID.String()); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	stat := "profiles_unmatched"
	if res.Match != search.MatchNone && res.Match != "" {
		stat = "profiles_matched"
	}
	if err := s.incrementDailyStat(tx, stat); err != nil {
		return fmt.Errorf("failed to count profile: %w", err)
	}

	return tx.Commit()
}

// SaveProfiles turns storing of the scraped record on or off. With it off
// Emit only records the match outcome.
func (s *Store) SaveProfiles(on bool) {
	s.saveProfiles = on
}

func saveProfile(ctx context.Context, tx *sql.Tx, res *pipeline.Result, now time.Time) error {
	data, err := json.Marshal(res.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (run_id, target, match, matched_href, email, phone, company, data, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			match = excluded.match,
			matched_href = excluded.matched_href,
			email = excluded.email,
			phone = excluded.phone,
			company = excluded.company,
			data = excluded.data,
			saved_at = excluded.saved_at
	`, res.RunID.String(), res.Target, string(res.Match), res.MatchedHref,
		res.Profile.Email, res.Profile.Phone, res.Profile.Company, string(data), now); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// GetProfile returns the saved record of a run, nil when none was saved
func (s *Store) GetProfile(runID uuid.UUID) (*StoredProfile, error) {
	var (
		p     = StoredProfile{RunID: runID}
		match string
		href  sql.NullString
		data  string
	)

	err := s.db.QueryRow(`
		SELECT target, match, matched_href, data, saved_at
		FROM profiles WHERE run_id = ?
	`, runID.String()).Scan(&p.Target, &match, &href, &data, &p.SavedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &p.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	p.Match = search.MatchStatus(match)
	p.MatchedHref = href.String
	return &p, nil
}
