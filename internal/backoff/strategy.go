package backoff

import "time"

// Strategy computes the wait before the retry that follows a failed attempt.
// Attempts are zero based: Delay(0) is the wait after the first failure.
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Geometric grows the delay by a fixed multiplier per attempt with no jitter,
// so a schedule is fully deterministic: initial, initial*m, initial*m^2, ...
type Geometric struct {
	Initial    time.Duration
	Multiplier float64
}

// maxAttemptExponent keeps the float product from overflowing time.Duration.
const maxAttemptExponent = 62

// Delay implements Strategy.
func (g Geometric) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxAttemptExponent {
		attempt = maxAttemptExponent
	}

	d := float64(g.Initial) * Pow(g.Multiplier, attempt)
	if d < 0 || d > float64(maxDuration) {
		return maxDuration
	}
	return time.Duration(d)
}

const maxDuration = time.Duration(1<<63 - 1)

// Schedule returns every wait a caller will sleep through for the given
// number of retries.
func Schedule(s Strategy, retries int) []time.Duration {
	if retries <= 0 {
		return nil
	}
	out := make([]time.Duration, retries)
	for i := range out {
		out[i] = s.Delay(i)
	}
	return out
}

// Total is the worst case time spent sleeping across all retries. It
// saturates instead of overflowing.
func Total(s Strategy, retries int) time.Duration {
	var total time.Duration
	for _, d := range Schedule(s, retries) {
		if total > maxDuration-d {
			return maxDuration
		}
		total += d
	}
	return total
}

// Pow calculates base^exponent using integer exponentiation.
func Pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
