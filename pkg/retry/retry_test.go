package retry

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/code-payments/staking-client/pkg/retry/backoff"
)

func TestRetrier(t *testing.T) {
	stubSleep(t)

	retriableErr := errors.New("retriable")
	r := NewRetrier(RetriableErrors(retriableErr), Limit(5), Backoff(backoff.Constant(time.Second), time.Second))

	attempts, err := r.Retry(func() error { return nil })
	assert.NoError(t, err)
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(func() error { return errors.New("unknown") })
	assert.Error(t, err)
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(func() error { return retriableErr })
	assert.Equal(t, retriableErr, err)
	assert.EqualValues(t, 5, attempts)

	// Wrapped errors still match
	attempts, err = r.Retry(func() error { return errors.Wrap(retriableErr, "rpc") })
	assert.True(t, errors.Is(err, retriableErr))
	assert.EqualValues(t, 5, attempts)
}

func TestRetry_RecoversAfterTransientErrors(t *testing.T) {
	slept := stubSleep(t)
	transient := errors.New("rate limited")

	var calls int
	var notified []uint
	attempts, err := Retry(
		func() error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		},
		RetriableErrors(transient),
		Limit(3),
		Notify(func(attempts uint, _ error) { notified = append(notified, attempts) }),
		Backoff(backoff.BinaryExponential(time.Second), 10*time.Second),
	)
	assert.NoError(t, err)
	assert.EqualValues(t, 3, attempts)
	assert.Equal(t, []uint{1, 2}, notified)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestRetry_NoStrategies(t *testing.T) {
	var calls int
	attempts, err := Retry(func() error {
		calls++
		if calls < 10 {
			return errors.New("err")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.EqualValues(t, 10, attempts)
}
