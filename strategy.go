package longrun

import (
	"errors"
	"time"
)

const (
	defaultStrategyInterval = 5 * time.Second
	defaultMinInterval      = time.Second
	defaultMaxInterval      = time.Minute
	defaultMultiplier       = 2.0
)

// State is the non-generic view of a handle given to a [Strategy].
type State struct {
	// ID is the operation identifier.
	ID string

	// Status is the last observed status.
	Status Status

	// PollInterval is the handle's current suggested interval (server hint).
	PollInterval time.Duration

	// Polls is the number of observations applied to the handle so far.
	Polls int

	// Elapsed is the time spent in the current wait. Zero outside a wait.
	Elapsed time.Duration
}

// Strategy computes the delay before the next poll.
//
// NextDelay receives the 1-based number of the attempt that just completed and
// the state after that attempt. Returning [ErrBudgetExhausted] (or an error
// wrapping it) stops the wait with a [TimeoutError]; any other error is
// returned from the wait as is.
type Strategy interface {
	NextDelay(attempt int, last State) (time.Duration, error)
}

// StrategyFunc adapts an ordinary function to the [Strategy] interface.
type StrategyFunc func(attempt int, last State) (time.Duration, error)

// NextDelay calls f(attempt, last).
func (f StrategyFunc) NextDelay(attempt int, last State) (time.Duration, error) {
	return f(attempt, last)
}

// budget holds the limits shared by the built-in strategies.
type budget struct {
	maxAttempts int
	maxElapsed  time.Duration
}

// check returns ErrBudgetExhausted once either limit is reached, and otherwise
// clips delay so the final poll lands on the elapsed deadline.
func (b budget) check(attempt int, elapsed, delay time.Duration) (time.Duration, error) {
	if b.maxAttempts > 0 && attempt >= b.maxAttempts {
		return 0, ErrBudgetExhausted
	}
	if b.maxElapsed > 0 {
		if elapsed >= b.maxElapsed {
			return 0, ErrBudgetExhausted
		}
		if remaining := b.maxElapsed - elapsed; delay > remaining {
			delay = remaining
		}
	}
	return delay, nil
}

// strategyConfig holds mutable state during strategy construction.
type strategyConfig struct {
	interval    time.Duration
	minInterval time.Duration
	maxInterval time.Duration
	multiplier  float64
	budget      budget
}

// StrategyOption configures a built-in [Strategy] during construction.
type StrategyOption func(*strategyConfig) error

// WithInterval sets the delay used when the service sends no hint
// ([FixedStrategy]) or the initial delay ([ExponentialStrategy]).
// Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) StrategyOption {
	return func(cfg *strategyConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithMinInterval sets the floor applied to every delay, preventing a service
// that suggests a near-zero delay from being hammered. Defaults to 1 second.
// Zero disables the floor.
//
// Returns an error if the duration is negative.
func WithMinInterval(d time.Duration) StrategyOption {
	return func(cfg *strategyConfig) error {
		if d < 0 {
			return errors.New("min interval cannot be negative")
		}
		cfg.minInterval = d
		return nil
	}
}

// WithMaxInterval caps the delay of an [ExponentialStrategy].
// Defaults to 1 minute. Ignored by [FixedStrategy].
//
// Returns an error if the duration is zero or negative.
func WithMaxInterval(d time.Duration) StrategyOption {
	return func(cfg *strategyConfig) error {
		if d <= 0 {
			return errors.New("max interval must be positive")
		}
		cfg.maxInterval = d
		return nil
	}
}

// WithMultiplier sets the growth factor of an [ExponentialStrategy].
// Defaults to 2. Ignored by [FixedStrategy].
//
// Returns an error if the factor is below 1.
func WithMultiplier(f float64) StrategyOption {
	return func(cfg *strategyConfig) error {
		if f < 1 {
			return errors.New("multiplier must be at least 1")
		}
		cfg.multiplier = f
		return nil
	}
}

// WithMaxAttempts limits the number of status checks performed by a wait.
// With n attempts the wait fails with [TimeoutError] after exactly n checks.
// Zero means unlimited.
//
// Returns an error if n is negative.
func WithMaxAttempts(n int) StrategyOption {
	return func(cfg *strategyConfig) error {
		if n < 0 {
			return errors.New("max attempts cannot be negative")
		}
		cfg.budget.maxAttempts = n
		return nil
	}
}

// WithMaxElapsed limits the total time a wait may spend polling.
// Zero means unlimited.
//
// Returns an error if the duration is negative.
func WithMaxElapsed(d time.Duration) StrategyOption {
	return func(cfg *strategyConfig) error {
		if d < 0 {
			return errors.New("max elapsed cannot be negative")
		}
		cfg.budget.maxElapsed = d
		return nil
	}
}

func newStrategyConfig(opts []StrategyOption) (*strategyConfig, error) {
	cfg := &strategyConfig{
		interval:    defaultStrategyInterval,
		minInterval: defaultMinInterval,
		maxInterval: defaultMaxInterval,
		multiplier:  defaultMultiplier,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// FixedStrategy polls at the interval suggested by the service.
//
// The delay is the handle's PollInterval (the latest server hint), or the
// configured interval when the service never sent one, raised to the minimum
// interval floor.
type FixedStrategy struct {
	interval    time.Duration
	minInterval time.Duration
	budget      budget
}

// NewFixedStrategy creates the default [FixedStrategy].
//
// Example:
//
//	strategy, err := longrun.NewFixedStrategy(
//	    longrun.WithMinInterval(2*time.Second),
//	    longrun.WithMaxElapsed(10*time.Minute),
//	)
func NewFixedStrategy(opts ...StrategyOption) (*FixedStrategy, error) {
	cfg, err := newStrategyConfig(opts)
	if err != nil {
		return nil, err
	}
	return &FixedStrategy{
		interval:    cfg.interval,
		minInterval: cfg.minInterval,
		budget:      cfg.budget,
	}, nil
}

// NextDelay implements [Strategy].
func (s *FixedStrategy) NextDelay(attempt int, last State) (time.Duration, error) {
	delay := last.PollInterval
	if delay <= 0 {
		delay = s.interval
	}
	if delay < s.minInterval {
		delay = s.minInterval
	}
	return s.budget.check(attempt, last.Elapsed, delay)
}

// ExponentialStrategy grows the delay geometrically between polls.
//
// The delay for attempt n is interval * multiplier^(n-1), capped at the
// maximum interval. A server hint larger than the computed delay wins, and the
// minimum interval floor always applies.
type ExponentialStrategy struct {
	interval    time.Duration
	minInterval time.Duration
	maxInterval time.Duration
	multiplier  float64
	budget      budget
}

// NewExponentialStrategy creates an [ExponentialStrategy].
func NewExponentialStrategy(opts ...StrategyOption) (*ExponentialStrategy, error) {
	cfg, err := newStrategyConfig(opts)
	if err != nil {
		return nil, err
	}
	if cfg.maxInterval < cfg.interval {
		return nil, errors.New("max interval must not be less than interval")
	}
	return &ExponentialStrategy{
		interval:    cfg.interval,
		minInterval: cfg.minInterval,
		maxInterval: cfg.maxInterval,
		multiplier:  cfg.multiplier,
		budget:      cfg.budget,
	}, nil
}

// NextDelay implements [Strategy].
func (s *ExponentialStrategy) NextDelay(attempt int, last State) (time.Duration, error) {
	delay := float64(s.interval)
	for i := 1; i < attempt && delay < float64(s.maxInterval); i++ {
		delay *= s.multiplier
	}

	d := time.Duration(delay)
	if d > s.maxInterval {
		d = s.maxInterval
	}
	if last.PollInterval > d {
		d = last.PollInterval
	}
	if d < s.minInterval {
		d = s.minInterval
	}
	return s.budget.check(attempt, last.Elapsed, d)
}
