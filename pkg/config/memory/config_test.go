package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/staking-client/pkg/config"
)

func TestConfig_Lifecycle(t *testing.T) {
	ctx := context.Background()

	c := NewConfig(nil)
	_, err := c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.SetValue(uint64(9))
	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 9, val)

	// Errors take precedence over a held value
	c.SetError(ErrInduced)
	_, err = c.Get(ctx)
	assert.Equal(t, ErrInduced, err)

	c.SetError(nil)
	val, err = c.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 9, val)

	c.ClearValue()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.SetValue("value")
	c.Shutdown()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}
