package browser

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/config"
	"github.com/Nehilsa2/fb_profile_enrichment/failure"
)

// Open starts the driver named in cfg. Failing to obtain a surface is a
// session error and ends the run.
func Open(ctx context.Context, cfg *config.Config, logger arbor.ILogger) (*Session, error) {
	var (
		session *Session
		err     error
	)

	switch cfg.Driver {
	case config.DriverChromedp:
		session, err = LaunchChromedp(ctx, cfg.Headless, logger)
	case config.DriverSnapshot:
		var snap *Snapshot
		snap, err = LoadSnapshotDir(cfg.SnapshotDir)
		if err == nil {
			session = &Session{Surface: snap, Driver: config.DriverSnapshot}
		}
	default:
		session, err = LaunchRod(ctx, cfg.Headless, logger)
	}

	if err != nil {
		return nil, failure.Wrap(failure.KindSession, "browser.open", err)
	}

	logger.Info().Str("driver", session.Driver).Msg("Browser session ready")
	return session, nil
}
