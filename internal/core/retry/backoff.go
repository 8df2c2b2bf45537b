package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// ComputeDelay returns the backoff to sleep after the given failed attempt.
//
//	base  = InitialDelay * BackoffMultiplier^(attempt-1), capped at MaxDelay
//	delay = base ± base*JitterFactor, never below MinDelay
//
// Jitter is applied after the cap, so the result may exceed MaxDelay slightly.
func ComputeDelay(attempt int, cfg Config) time.Duration {
	cfg = cfg.normalized()
	if attempt < 1 {
		attempt = 1
	}

	initial := float64(cfg.InitialDelay) / float64(time.Millisecond)
	maxDelay := float64(cfg.MaxDelay) / float64(time.Millisecond)

	delay := initial * math.Pow(cfg.BackoffMultiplier, float64(attempt-1))
	if delay > maxDelay || math.IsInf(delay, 0) || math.IsNaN(delay) {
		delay = maxDelay
	}

	if cfg.JitterFactor > 0 {
		random := cfg.Rand
		if random == nil {
			random = rand.Float64
		}
		jitter := delay * cfg.JitterFactor * (random()*2 - 1)
		delay += jitter
	}

	floor := float64(MinDelay) / float64(time.Millisecond)
	if delay < floor {
		delay = floor
	}

	return time.Duration(math.Round(delay)) * time.Millisecond
}
