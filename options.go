package longrun

import (
	"errors"
	"time"
)

const defaultPollInterval = 5 * time.Second

// pollerConfig holds mutable state during Poller construction.
type pollerConfig struct {
	strategy     Strategy
	pollInterval time.Duration
}

// Option is a function that configures a [Poller] during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
type Option func(*pollerConfig) error

// WithStrategy sets the [Strategy] used by [Poller.Wait] and [Poller.Watch]
// when the caller passes nil. Defaults to [NewFixedStrategy] with its defaults,
// which polls until the operation completes or the context is cancelled.
//
// Example:
//
//	strategy, _ := longrun.NewFixedStrategy(longrun.WithMaxAttempts(60))
//	p, err := longrun.New(remote, longrun.WithStrategy(strategy))
//
// Returns an error if the strategy is nil.
func WithStrategy(s Strategy) Option {
	return func(cfg *pollerConfig) error {
		if s == nil {
			return errors.New("strategy cannot be nil")
		}
		cfg.strategy = s
		return nil
	}
}

// WithPollInterval sets the interval stored on new handles when the service
// does not suggest one at start time. Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *pollerConfig) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		cfg.pollInterval = d
		return nil
	}
}
