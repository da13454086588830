// Package env provides configs backed by environment variables.
package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/staking-client/pkg/config"
	"github.com/code-payments/staking-client/pkg/config/wrapper"
)

type conf struct {
	name string
}

// NewConfig returns a config.Config reading the upper cased environment
// variable key on every Get. Empty variables count as unset.
func NewConfig(key string) config.Config {
	return &conf{name: strings.ToUpper(key)}
}

// Get implements Config.Get
func (c *conf) Get(_ context.Context) (interface{}, error) {
	val, ok := os.LookupEnv(c.name)
	if !ok || len(val) == 0 {
		return nil, config.ErrNoValue
	}
	return []byte(val), nil
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {}

func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

func NewStringConfig(key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(key), defaultValue)
}

func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
