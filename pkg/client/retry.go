package client

import (
	"math"
	"math/rand"
	"time"
)

// RetryScale selects how the wait between retries grows with the attempt
// counter.
type RetryScale int

const (
	// ConstantBackoff waits the base duration before every retry.
	ConstantBackoff RetryScale = iota
	// LinearBackoff waits (attempt+1) times the base duration.
	LinearBackoff
	// ExponentialBackoff doubles the base duration with every attempt.
	ExponentialBackoff
)

// DefaultJitter is the fraction by which a computed interval may randomly
// deviate in either direction.
const DefaultJitter = 0.5

// randomFloat is the source of jitter randomness. Tests may replace it.
var randomFloat = rand.Float64

// RetrySchedule computes the cooldown before each retry of a failed chunk.
// A zero Base disables waiting entirely.
type RetrySchedule struct {
	// Base is the cooldown before the first retry.
	Base time.Duration
	// Scale selects how the cooldown grows with subsequent attempts.
	Scale RetryScale
	// Jitter is the maximum relative deviation applied to the scaled
	// cooldown, e.g. 0.5 allows the interval to shrink or grow by half.
	Jitter float64
}

// Interval returns the wait before retry number attempt. The counter is
// zero-indexed on the first failure: the first retry always starts from Base,
// the scale only takes effect from the second retry on. Jitter applies to
// every attempt.
func (s RetrySchedule) Interval(attempt int) time.Duration {
	if s.Base <= 0 {
		return 0
	}

	base := s.Base.Seconds()
	if attempt > 0 {
		switch s.Scale {
		case LinearBackoff:
			base *= float64(attempt + 1)
		case ExponentialBackoff:
			base *= math.Pow(2, float64(attempt))
		}
	}

	// Jitter is applied to the already-scaled base, so it may halve or
	// double the interval. The result is truncated to whole seconds.
	seconds := math.Floor(base * (1 + s.Jitter*(2*randomFloat()-1)))
	if seconds < 0 {
		seconds = 0
	}

	return time.Duration(seconds) * time.Second
}
