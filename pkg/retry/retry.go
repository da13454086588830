// Package retry runs actions until they succeed or a Strategy gives up.
package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retrier retries the provided action.
type Retrier interface {
	Retry(action Action) (uint, error)
}

type retrier []Strategy

// NewRetrier returns a Retrier that applies strategies to every action. With
// no strategies it retries until the action succeeds.
func NewRetrier(strategies ...Strategy) Retrier {
	return retrier(strategies)
}

func (r retrier) Retry(action Action) (uint, error) {
	return Retry(action, r...)
}

// Retry runs action until it succeeds or a strategy declines another
// attempt. It returns the number of attempts made and the last error.
//
// Every strategy is consulted in order after each failure, and the first to
// decline ends the loop. Strategies that sleep belong last.
func Retry(action Action, strategies ...Strategy) (attempts uint, err error) {
	for {
		attempts++
		if err = action(); err == nil {
			return attempts, nil
		}

		for _, shouldRetry := range strategies {
			if !shouldRetry(attempts, err) {
				return attempts, err
			}
		}
	}
}
