package presence

import "time"

// Config configures the Tracker.
type Config struct {
	GraceWindow   time.Duration `env:"PRESENCE_GRACE_WINDOW" envDefault:"10s"`
	SweepInterval time.Duration `env:"PRESENCE_SWEEP_INTERVAL" envDefault:"10s"`
}

// DefaultConfig returns a 10s grace window swept every 10s.
func DefaultConfig() Config {
	return Config{
		GraceWindow:   10 * time.Second,
		SweepInterval: 10 * time.Second,
	}
}
