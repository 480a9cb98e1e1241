package client

import (
	"math"
	"math/rand"
	"time"
)

// BackoffConfig defines retry delay growth between attempts.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// NextBackoffDelay returns the delay inserted before retrying after failed
// attempt N (1-based). Without jitter the schedule is exactly
// InitialDelay * Multiplier^(N-1), capped at MaxDelay. Jitter stretches a
// delay by up to half but never shrinks it, and the cap is applied after
// the stretch: once the schedule saturates every delay is exactly
// MaxDelay, so the sequence never decreases.
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay)
	if attempt > 1 {
		delay *= math.Pow(cfg.Multiplier, float64(attempt-1))
	}
	if cfg.Jitter {
		f := 1.25
		if rng != nil {
			f = 1.0 + 0.5*rng.Float64()
		}
		delay *= f
	}
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
