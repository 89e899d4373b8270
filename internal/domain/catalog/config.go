package catalog

import "time"

// Config carries the policy knobs for duplicate detection and mirroring.
type Config struct {
	// DefaultThreshold is the minimum similarity at which a candidate is
	// considered a duplicate, unless a per-request override is supplied.
	DefaultThreshold float64
	// DefaultTopK / MaxTopK bound the nearest-neighbour result size.
	DefaultTopK int
	MaxTopK     int

	// ShortQueryBoost raises the effective threshold by ShortQueryDelta for
	// questions with fewer than ShortQueryMinTokens whitespace tokens.
	// Deployments disagree on whether this policy is wanted, so it stays an
	// explicit flag, off by default.
	ShortQueryBoost     bool
	ShortQueryDelta     float64
	ShortQueryMinTokens int

	// FlushInterval paces the background mirror reconciler.
	FlushInterval time.Duration
	// ReplayThrottle is the pause between successive embedding calls during
	// replay repair, to avoid overwhelming the provider.
	ReplayThrottle time.Duration
}

func (c Config) clampK(k int) int {
	if k < 1 {
		return c.defaultTopK()
	}
	if max := c.maxTopK(); k > max {
		return max
	}
	return k
}

func (c Config) defaultTopK() int {
	if c.DefaultTopK > 0 {
		return c.DefaultTopK
	}
	return 3
}

func (c Config) maxTopK() int {
	if c.MaxTopK > 0 {
		return c.MaxTopK
	}
	return 10
}
