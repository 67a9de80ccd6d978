package config

import "time"

// RateLimitConfig sizes the per-client token bucket on the public activation
// and login routes.  A client starts with Capacity attempts and earns
// RefillTokens more every RefillInterval.
//
// KeyStrategy is "ip", "ip_route" or "route".  Buckets idle for TTL are
// evicted by Redis.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* and clamps the result to a
// usable bucket.
func LoadRateLimitConfig() RateLimitConfig {
	rl := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 20),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 3*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	rl.Capacity = max(rl.Capacity, 1)
	rl.RefillTokens = max(rl.RefillTokens, 1)
	if rl.RefillInterval <= 0 {
		rl.RefillInterval = time.Second
	}
	// A bucket must outlive a few refills or it would reset to full.
	rl.TTL = max(rl.TTL, 5*rl.RefillInterval)
	return rl
}
