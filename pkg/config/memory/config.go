package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/code-payments/staking-client/pkg/config"
)

// ErrInduced is a convenience error for tests exercising config failures.
var ErrInduced = errors.New("memory config: induced error")

// Config is a config.Config holding its value in memory. It backs manual
// overrides in tests.
type Config struct {
	mu     sync.RWMutex
	value  interface{}
	err    error
	closed bool
}

// NewConfig returns a Config holding value. A nil value means unset.
func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements config.Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.closed:
		return nil, config.ErrShutdown
	case c.err != nil:
		return nil, c.err
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements config.Config.Shutdown
func (c *Config) Shutdown() {
	c.update(func() { c.closed = true })
}

// SetValue replaces the held value.
func (c *Config) SetValue(value interface{}) {
	c.update(func() { c.value = value })
}

// ClearValue unsets the held value, so Get returns config.ErrNoValue.
func (c *Config) ClearValue() {
	c.SetValue(nil)
}

// SetError makes Get fail with err until SetError(nil) is called.
func (c *Config) SetError(err error) {
	c.update(func() { c.err = err })
}

func (c *Config) update(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}
