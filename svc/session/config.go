package session

import "time"

// Config configures session lifetime and sweeping.
type Config struct {
	// MaxAge is how long an activation stays valid before the sweeper
	// deactivates it. It is also the cookie lifetime.
	MaxAge        time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"30m"`
}

// DefaultConfig returns a 24h max age swept every 30 minutes.
func DefaultConfig() Config {
	return Config{
		MaxAge:        24 * time.Hour,
		SweepInterval: 30 * time.Minute,
	}
}
