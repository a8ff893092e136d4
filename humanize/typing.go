package humanize

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// TypingConfig holds configuration for human-like typing
type TypingConfig struct {
	// Base delay between keystrokes in milliseconds
	BaseDelayMs int
	// Random variation added to base delay (±)
	VariationMs int
	// Probability of a longer "thinking" pause (0-100)
	ThinkPauseProbability int
	ThinkPauseMinMs       int
	ThinkPauseMaxMs       int
}

// DefaultTypingConfig returns sensible defaults for human-like typing
func DefaultTypingConfig() TypingConfig {
	return TypingConfig{
		BaseDelayMs:           80,
		VariationMs:           40,
		ThinkPauseProbability: 5,
		ThinkPauseMinMs:       300,
		ThinkPauseMaxMs:       800,
	}
}

// CredentialTypingConfig is a little faster: people type familiar
// credentials quickly and rarely pause.
func CredentialTypingConfig() TypingConfig {
	return TypingConfig{
		BaseDelayMs:           60,
		VariationMs:           30,
		ThinkPauseProbability: 2,
		ThinkPauseMinMs:       150,
		ThinkPauseMaxMs:       400,
	}
}

// InstantTypingConfig disables every delay (snapshot replays and tests)
func InstantTypingConfig() TypingConfig {
	return TypingConfig{}
}

// Typist sends text one keystroke at a time with human-like timing
type Typist struct {
	Config TypingConfig
	rng    *rand.Rand
}

func NewTypist(cfg TypingConfig, rng *rand.Rand) *Typist {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Typist{Config: cfg, rng: rng}
}

// Type calls send once per character, waiting a keystroke delay after each.
// It stops at the first send error or when ctx ends.
func (t *Typist) Type(ctx context.Context, text string, send func(ctx context.Context, char string) error) error {
	runes := []rune(text)
	for i, char := range runes {
		if err := send(ctx, string(char)); err != nil {
			return fmt.Errorf("keystroke %d: %w", i, err)
		}

		delay := t.KeystrokeDelay(char, i)
		if delay <= 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// KeystrokeDelay returns the pause after typing char at position.
// Word and sentence boundaries, capitals, digits and symbols are slower; so
// is the first key.
func (t *Typist) KeystrokeDelay(char rune, position int) time.Duration {
	cfg := t.Config
	if cfg.BaseDelayMs <= 0 {
		return 0
	}

	base := float64(cfg.BaseDelayMs)
	switch {
	case char == ' ':
		base *= 1.3
	case char == '.' || char == '!' || char == '?':
		base *= 1.8
	case char == ',' || char == ';' || char == ':':
		base *= 1.4
	case char >= 'A' && char <= 'Z':
		base *= 1.2
	case char >= '0' && char <= '9':
		base *= 1.15
	case char == '@' || char == '#' || char == '$' || char == '%' || char == '+':
		base *= 1.4
	}

	if position == 0 {
		base *= 1.5
	}

	delay := int(base)
	if cfg.VariationMs > 0 {
		delay += t.rng.Intn(cfg.VariationMs*2) - cfg.VariationMs
	}
	if delay < 30 {
		delay = 30
	}

	if cfg.ThinkPauseProbability > 0 && t.rng.Intn(100) < cfg.ThinkPauseProbability {
		delay += cfg.ThinkPauseMinMs
		if span := cfg.ThinkPauseMaxMs - cfg.ThinkPauseMinMs; span > 0 {
			delay += t.rng.Intn(span)
		}
	}

	return time.Duration(delay) * time.Millisecond
}
