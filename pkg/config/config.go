// Package config defines sources of configuration values and the typed views
// components consume them through.
package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates no value was set for the config
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is a source of raw configuration values. Sources backed by text,
// such as the environment or a config file, return []byte.
type Config interface {
	Get(ctx context.Context) (interface{}, error)

	// Shutdown releases any resources held by the source
	Shutdown()
}

// Typed is a Config whose values have been converted to T. Get falls back to
// the last good value, or the default, when the source fails.
type Typed[T any] interface {
	Get(ctx context.Context) T
	GetSafe(ctx context.Context) (T, error)
	Shutdown()
}

type (
	Duration = Typed[time.Duration]
	Uint64   = Typed[uint64]
	String   = Typed[string]
)
