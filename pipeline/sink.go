package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
)

// Sink receives the finished record of a run
type Sink interface {
	Emit(ctx context.Context, res *Result) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, res *Result) error

func (f SinkFunc) Emit(ctx context.Context, res *Result) error {
	return f(ctx, res)
}

// LogSink writes the record to the run's log, field by field and then as JSON
type LogSink struct {
	logger arbor.ILogger
}

func NewLogSink(logger arbor.ILogger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, res *Result) error {
	s.logger.Info().
		Str("run_id", res.RunID.String()).
		Str("target", res.Target).
		Str("match", string(res.Match)).
		Str("href", res.MatchedHref).
		Msg("Final scraped profile")

	for _, f := range res.Profile.Fields() {
		s.logger.Info().Str("field", f.Name).Str("value", f.Value).Msg("Profile field")
	}

	data, err := json.MarshalIndent(res.Profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	s.logger.Info().Msgf("Final scraped profileData:\n%s", data)
	return nil
}
