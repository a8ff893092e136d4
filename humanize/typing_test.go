package humanize

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeSendsEveryCharacterInOrder(t *testing.T) {
	typist := NewTypist(InstantTypingConfig(), rand.New(rand.NewSource(1)))

	var got []string
	err := typist.Type(context.Background(), "jane@ex.com", func(_ context.Context, c string) error {
		got = append(got, c)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"j", "a", "n", "e", "@", "e", "x", ".", "c", "o", "m"}, got)
}

func TestTypeStopsOnSendError(t *testing.T) {
	typist := NewTypist(InstantTypingConfig(), nil)

	calls := 0
	err := typist.Type(context.Background(), "abc", func(context.Context, string) error {
		calls++
		if calls == 2 {
			return errors.New("detached")
		}
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "keystroke 1")
	assert.Equal(t, 2, calls)
}

func TestTypeHonoursCancellation(t *testing.T) {
	typist := NewTypist(TypingConfig{BaseDelayMs: 5000}, rand.New(rand.NewSource(1)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := typist.Type(ctx, "slow", func(context.Context, string) error { return nil })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestKeystrokeDelay(t *testing.T) {
	cfg := TypingConfig{BaseDelayMs: 100}
	typist := NewTypist(cfg, rand.New(rand.NewSource(1)))

	assert.Equal(t, 100*time.Millisecond, typist.KeystrokeDelay('a', 3))
	assert.Equal(t, 150*time.Millisecond, typist.KeystrokeDelay('a', 0))
	assert.Equal(t, 180*time.Millisecond, typist.KeystrokeDelay('.', 3))
	assert.Equal(t, 120*time.Millisecond, typist.KeystrokeDelay('J', 3))

	assert.Zero(t, NewTypist(InstantTypingConfig(), nil).KeystrokeDelay('a', 0))
}

func TestKeystrokeDelayStaysInBounds(t *testing.T) {
	cfg := CredentialTypingConfig()
	typist := NewTypist(cfg, rand.New(rand.NewSource(42)))

	for i := 0; i < 500; i++ {
		d := typist.KeystrokeDelay('x', i)
		assert.GreaterOrEqual(t, d, 30*time.Millisecond)
		assert.Less(t, d, time.Duration(cfg.BaseDelayMs*2+cfg.VariationMs+cfg.ThinkPauseMaxMs)*time.Millisecond)
	}
}
