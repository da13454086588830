package wrapper

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/staking-client/pkg/config"
	"github.com/code-payments/staking-client/pkg/config/memory"
)

// typedCase describes how a typed wrapper should treat raw source values.
type typedCase[T any] struct {
	defaultValue T
	override     T
	text         []byte
	fromText     T
	badText      []byte
	unsupported  interface{}
}

func testTyped[T any](t *testing.T, newConfig func(config.Config, T) config.Typed[T], tc typedCase[T]) {
	ctx := context.Background()
	source := memory.NewConfig(nil)
	c := newConfig(source, tc.defaultValue)

	// Unset sources yield the default
	val, err := c.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, tc.defaultValue, val)

	source.SetValue(tc.override)
	assert.Equal(t, tc.override, c.Get(ctx))

	// Failures keep returning the last good value
	source.SetError(memory.ErrInduced)
	val, err = c.GetSafe(ctx)
	assert.Equal(t, memory.ErrInduced, err)
	assert.Equal(t, tc.override, val)
	source.SetError(nil)

	source.SetValue(tc.text)
	assert.Equal(t, tc.fromText, c.Get(ctx))

	if tc.badText != nil {
		source.SetValue(tc.badText)
		val, err = c.GetSafe(ctx)
		assert.Error(t, err)
		assert.Equal(t, tc.fromText, val)
	}

	source.SetValue(tc.unsupported)
	val, err = c.GetSafe(ctx)
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.Equal(t, tc.fromText, val)

	source.ClearValue()
	assert.Equal(t, tc.defaultValue, c.Get(ctx))

	c.Shutdown()
	_, err = c.GetSafe(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}

func TestUint64Config(t *testing.T) {
	testTyped(t, NewUint64Config, typedCase[uint64]{
		defaultValue: math.MaxUint64,
		override:     0,
		text:         []byte(" 9\n"),
		fromText:     9,
		badText:      []byte("-9"),
		unsupported:  "9",
	})

	// Platform sized unsigned values are accepted too
	c := NewUint64Config(memory.NewConfig(uint(42)), 0)
	assert.EqualValues(t, 42, c.Get(context.Background()))
}

func TestStringConfig(t *testing.T) {
	testTyped(t, NewStringConfig, typedCase[string]{
		defaultValue: "confirmed",
		override:     "finalized",
		text:         []byte("processed"),
		fromText:     "processed",
		unsupported:  1234,
	})
}

func TestDurationConfig(t *testing.T) {
	testTyped(t, NewDurationConfig, typedCase[time.Duration]{
		defaultValue: 30 * time.Second,
		override:     -2 * time.Hour,
		text:         []byte("1m30s\n"),
		fromText:     90 * time.Second,
		badText:      []byte("ninety"),
		unsupported:  "90s",
	})
}
