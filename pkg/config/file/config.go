// Package file provides configs backed by a viper instance, typically loaded
// from a config file.
package file

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"github.com/code-payments/staking-client/pkg/config"
	"github.com/code-payments/staking-client/pkg/config/wrapper"
)

type conf struct {
	v   *viper.Viper
	key string
}

// NewConfig returns a config.Config reading key from v on every Get, so
// values reloaded by v are observed. Values are surfaced in textual form.
func NewConfig(v *viper.Viper, key string) config.Config {
	return &conf{
		v:   v,
		key: key,
	}
}

// Get implements Config.Get
func (c *conf) Get(_ context.Context) (interface{}, error) {
	if !c.v.IsSet(c.key) {
		return nil, config.ErrNoValue
	}

	val := c.v.GetString(c.key)
	if len(val) == 0 {
		return nil, config.ErrNoValue
	}
	return []byte(val), nil
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {
}

// NewUint64Config creates a file-based uint64 config
func NewUint64Config(v *viper.Viper, key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(v, key), defaultValue)
}

// NewStringConfig creates a file-based string config
func NewStringConfig(v *viper.Viper, key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(v, key), defaultValue)
}

// NewDurationConfig creates a file-based duration config
func NewDurationConfig(v *viper.Viper, key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(v, key), defaultValue)
}
