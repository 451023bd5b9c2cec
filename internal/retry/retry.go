// Package retry wraps a model call with classified retry behavior and
// exponential backoff. Classification works on the textual form of the
// error because backends surface heterogeneous failures (SDK error types,
// proxy bodies, transport errors) that only agree on their wording.
package retry

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

var transientSignals = []string{
	"rate limit", "429", "timeout", "connection",
	"temporary", "unavailable", "503", "502", "504",
}

var fatalSignals = []string{
	"authentication", "401", "403", "invalid", "bad request", "400",
}

// Policy controls retry counts and backoff shape.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// Multiplier scales the delay for each subsequent retry.
	Multiplier float64
	// Jitter scales each delay by a uniform factor in [0.5, 1.5).
	Jitter bool
}

// DefaultPolicy mirrors the harness defaults: four attempts total, 2s
// initial delay, doubling, jittered.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Transient reports whether the error text carries a recognized transient
// signal. Anything unrecognized is not retried.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(strings.ToLower(err.Error()), transientSignals)
}

// Fatal reports whether the error text carries an auth/invalid-request
// signal. Fatal wins over transient when a message matches both sets.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(strings.ToLower(err.Error()), fatalSignals)
}

// Do runs op, retrying per the policy. The last error is returned
// unchanged so the caller can decide final disposition.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}

	retries := 0
	for {
		out, err := op()
		if err == nil {
			return out, nil
		}
		retries++

		if Fatal(err) {
			return zero, err
		}
		if !Transient(err) || retries > p.MaxRetries {
			return zero, err
		}

		if sleepErr := sleep(ctx, p.delay(retries)); sleepErr != nil {
			return zero, err
		}
	}
}

// delay computes the backoff before retry k (1-indexed).
func (p Policy) delay(k int) time.Duration {
	if p.InitialDelay <= 0 || k <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 1
	}

	d := float64(p.InitialDelay)
	for i := 1; i < k; i++ {
		d *= mult
	}
	if p.Jitter {
		d *= 0.5 + rand.Float64()
	}
	return time.Duration(d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
