package retry

import (
	"errors"
	"math/rand"
	"time"

	"github.com/code-payments/staking-client/pkg/retry/backoff"
)

// Strategy decides whether an action should be attempted again. Strategies
// may sleep.
type Strategy func(attempts uint, err error) bool

// sleep is swapped out in tests.
var sleep = time.Sleep

// Limit caps the total number of attempts, including the first.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriableErrors with
// errors.Is.
func RetriableErrors(retriableErrors ...error) Strategy {
	return func(_ uint, err error) bool {
		for _, target := range retriableErrors {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

// Notify calls fn before each retry. Place it after the strategies that may
// decline, so fn only observes attempts that will be repeated.
func Notify(fn func(attempts uint, err error)) Strategy {
	return func(attempts uint, err error) bool {
		fn(attempts, err)
		return true
	}
}

// Backoff sleeps for the delay given by strategy, capped at maxBackoff.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(strategy, maxBackoff, 0)
}

// BackoffWithJitter is Backoff with the capped delay randomly scaled by a
// factor within [1-jitter, 1+jitter].
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := strategy(attempts)
		if delay > maxBackoff {
			delay = maxBackoff
		}

		if jitter > 0 {
			factor := 1 + jitter*(2*rand.Float64()-1)
			delay = time.Duration(float64(delay) * factor)
		}

		sleep(delay)
		return true
	}
}
