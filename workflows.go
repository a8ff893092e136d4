package main

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/auth"
	"github.com/Nehilsa2/fb_profile_enrichment/browser"
	"github.com/Nehilsa2/fb_profile_enrichment/config"
	"github.com/Nehilsa2/fb_profile_enrichment/identity"
	"github.com/Nehilsa2/fb_profile_enrichment/persistence"
	"github.com/Nehilsa2/fb_profile_enrichment/pipeline"
)

// RunEnrichment reads the configured identity record, sets up a logged-in
// browser and enriches the record's person. The browser is left open.
func RunEnrichment(ctx context.Context, cfg *config.Config, logger arbor.ILogger) error {
	logger.Info().Str("sheet", cfg.SheetID).Str("range", cfg.SheetRange).Msg("STEP 1: Reading identity records")

	record, err := identity.Load(ctx, identity.NewSheetsSource(cfg.SheetID, cfg.SheetRange, cfg.APIKey), cfg.RecordIndex)
	if err != nil {
		return err
	}
	logger.Info().Int("index", cfg.RecordIndex).Str("name", record.Name()).Msg("Identity record selected")

	logger.Info().Str("driver", cfg.Driver).Bool("headless", cfg.Headless).Msg("STEP 2: Launching browser")
	session, err := browser.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if err := auth.NewAuthenticator(session, cfg, logger).EnsureAuthenticated(ctx); err != nil {
		return err
	}

	runner := pipeline.NewRunner(session.Surface, cfg.Tuning, logger)
	runner.AddSink(pipeline.NewLogSink(logger))

	if store := openJournal(cfg, logger); store != nil {
		defer store.Close()
		runner.OnTransition(store.Observer(logger))
		runner.AddSink(store)
		defer logJournalStats(store, logger)
	}

	if _, err := runner.Run(ctx, record.Name()); err != nil {
		return err
	}

	logger.Info().Msg("Browser will remain open for inspection. Close it manually when done.")
	return nil
}

// openJournal returns nil when the journal is disabled or can't be opened;
// the run goes on without it
func openJournal(cfg *config.Config, logger arbor.ILogger) *persistence.Store {
	if cfg.JournalPath == "" {
		return nil
	}

	store, err := persistence.NewStore(cfg.JournalPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.JournalPath).Msg("Run journal unavailable")
		return nil
	}
	store.SaveProfiles(cfg.JournalProfiles)
	logger.Debug().Str("path", store.Path()).Bool("profiles", cfg.JournalProfiles).Msg("Run journal opened")
	return store
}

func logJournalStats(store *persistence.Store, logger arbor.ILogger) {
	stats, err := store.GetTodayStats()
	if err != nil {
		logger.Warn().Err(err).Msg("Could not read journal stats")
		return
	}
	logger.Info().
		Int("runs", stats.RunsStarted).
		Int("matched", stats.ProfilesMatched).
		Int("unmatched", stats.ProfilesUnmatched).
		Msg("Today's runs")
}
