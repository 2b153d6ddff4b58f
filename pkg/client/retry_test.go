package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalZeroBase(t *testing.T) {
	a := assert.New(t)

	for _, scale := range []RetryScale{ConstantBackoff, LinearBackoff, ExponentialBackoff} {
		schedule := RetrySchedule{Base: 0, Scale: scale, Jitter: DefaultJitter}
		a.Equal(time.Duration(0), schedule.Interval(0))
		a.Equal(time.Duration(0), schedule.Interval(3))
	}
}

func TestIntervalConstant(t *testing.T) {
	a := assert.New(t)

	schedule := RetrySchedule{Base: 2 * time.Second, Scale: ConstantBackoff}
	for attempt := 0; attempt < 5; attempt++ {
		a.Equal(2*time.Second, schedule.Interval(attempt))
	}
}

func TestIntervalLinear(t *testing.T) {
	a := assert.New(t)

	schedule := RetrySchedule{Base: 2 * time.Second, Scale: LinearBackoff}
	expected := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		6 * time.Second,
		8 * time.Second,
	}
	for attempt, want := range expected {
		a.Equal(want, schedule.Interval(attempt), "attempt %d", attempt)
	}
}

func TestIntervalExponential(t *testing.T) {
	a := assert.New(t)

	schedule := RetrySchedule{Base: 2 * time.Second, Scale: ExponentialBackoff}
	expected := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
	}
	for attempt, want := range expected {
		a.Equal(want, schedule.Interval(attempt), "attempt %d", attempt)
	}
}

func TestIntervalJitter(t *testing.T) {
	a := assert.New(t)

	defer func() {
		randomFloat = originalRandomFloat
	}()

	schedule := RetrySchedule{Base: 10 * time.Second, Scale: ConstantBackoff, Jitter: 0.5}

	// rand() == 0 pulls the interval down to half the base.
	randomFloat = func() float64 { return 0 }
	a.Equal(5*time.Second, schedule.Interval(1))

	// rand() == 0.5 leaves the base untouched.
	randomFloat = func() float64 { return 0.5 }
	a.Equal(10*time.Second, schedule.Interval(1))

	// rand() just below 1 approaches one and a half times the base,
	// truncated to whole seconds.
	randomFloat = func() float64 { return 0.999999 }
	a.Equal(14*time.Second, schedule.Interval(1))
}

func TestIntervalNeverNegative(t *testing.T) {
	a := assert.New(t)

	defer func() {
		randomFloat = originalRandomFloat
	}()

	// An oversized jitter must not produce a negative wait.
	schedule := RetrySchedule{Base: time.Second, Scale: ConstantBackoff, Jitter: 3}
	randomFloat = func() float64 { return 0 }
	a.Equal(time.Duration(0), schedule.Interval(0))
}

var originalRandomFloat = randomFloat
