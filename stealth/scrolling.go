package stealth

import (
	"math"
	"math/rand"
	"time"
)

// ScrollConfig holds configuration for human-like scrolling
type ScrollConfig struct {
	// Delay between wheel steps in ms
	StepDelayMin int
	StepDelayMax int

	// Target position of the element, as a fraction of viewport height
	Anchor float64

	// Chunks a long scroll is split into
	MinChunks int
	MaxChunks int
}

// DefaultScrollConfig returns sensible defaults for human-like scrolling
func DefaultScrollConfig() ScrollConfig {
	return ScrollConfig{
		StepDelayMin: 20,
		StepDelayMax: 60,
		Anchor:       1.0 / 3,
		MinChunks:    4,
		MaxChunks:    7,
	}
}

// WheelStep is one mouse-wheel delta followed by a pause
type WheelStep struct {
	DeltaY int
	Delay  time.Duration
}

// ScrollDistance returns how far to scroll so an element whose top is at
// elementTop (viewport coordinates) lands at the configured anchor. Elements
// already comfortably inside the viewport need no scroll.
func ScrollDistance(elementTop, viewportHeight float64, cfg ScrollConfig) int {
	if elementTop >= 0 && elementTop <= viewportHeight-100 {
		return 0
	}
	return int(math.Round(elementTop - viewportHeight*cfg.Anchor))
}

// ScrollPlan splits distance into wheel steps that start slow, speed up in
// the middle and slow down again. The deltas sum to distance.
func ScrollPlan(rng *rand.Rand, distance int, cfg ScrollConfig) []WheelStep {
	if distance == 0 {
		return nil
	}

	direction := 1
	if distance < 0 {
		direction = -1
		distance = -distance
	}

	chunks := cfg.MinChunks
	if cfg.MaxChunks > cfg.MinChunks {
		chunks += rng.Intn(cfg.MaxChunks - cfg.MinChunks + 1)
	}
	if chunks < 1 {
		chunks = 1
	}
	base := float64(distance) / float64(chunks)

	steps := make([]WheelStep, 0, chunks)
	remaining := distance
	for i := 0; i < chunks && remaining > 0; i++ {
		multiplier := 1.0
		switch {
		case i == 0 || i == chunks-1:
			multiplier = 0.5
		case i == chunks/2:
			multiplier = 1.5
		}

		size := int(base * multiplier)
		if size < 20 {
			size = 20
		}
		if size > remaining || i == chunks-1 {
			size = remaining
		}
		remaining -= size

		steps = append(steps, WheelStep{
			DeltaY: size * direction,
			Delay:  RandomMillis(rng, cfg.StepDelayMin, cfg.StepDelayMax),
		})
	}

	return steps
}
