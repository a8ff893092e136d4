package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Nehilsa2/fb_profile_enrichment/common"
	"github.com/Nehilsa2/fb_profile_enrichment/config"
	"github.com/Nehilsa2/fb_profile_enrichment/failure"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "FATAL ERROR:", err)
		os.Exit(1)
	}

	logger := common.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RunEnrichment(ctx, &cfg, logger); err != nil {
		logger.Error().Err(err).Str("kind", string(failure.KindOf(err))).Msg("FATAL ERROR")
		stop()
		os.Exit(1)
	}
}
