package config

import (
	"fmt"
	"strconv"
)

const maxTopN = 60

// Validate checks invariants cleanenv tags cannot express and clamps the
// similarity neighbour count into 1..60.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port must be numeric (got %q)", c.Server.Port)
	}
	if c.Session.TeamTTL < 0 {
		return fmt.Errorf("session.team_ttl must be >= 0 (got %v)", c.Session.TeamTTL)
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be > 0 (got %v)", c.Session.SweepInterval)
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate_limit.rps must be > 0 (got %d)", c.RateLimit.RPS)
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.burst must be > 0 (got %d)", c.RateLimit.Burst)
	}
	if c.Similarity.Timeout <= 0 {
		return fmt.Errorf("similarity.timeout must be > 0 (got %v)", c.Similarity.Timeout)
	}
	c.Similarity.TopN = max(1, min(c.Similarity.TopN, maxTopN))
	return nil
}
