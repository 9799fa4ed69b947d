package resilience

import "time"

// CircuitBreakerConfig tunes the breaker guarding the payment provider.
// Order creation is interactive, so the defaults trip quickly and keep
// the window short enough for a registrant to retry from the browser.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 3
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	return c
}
