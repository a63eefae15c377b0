package delegated

import "time"

// Config configures the Verifier.
type Config struct {
	Timeout          time.Duration `env:"DELEGATED_TIMEOUT" envDefault:"10s"`
	FailureThreshold int           `env:"DELEGATED_BREAKER_FAILURES" envDefault:"5"`
	SuccessThreshold int           `env:"DELEGATED_BREAKER_SUCCESSES" envDefault:"2"`
	RecoveryTimeout  time.Duration `env:"DELEGATED_BREAKER_RECOVERY" envDefault:"30s"`
	// MaxResponseSize caps the verification response body.
	MaxResponseSize int64 `env:"DELEGATED_MAX_RESPONSE_SIZE" envDefault:"65536"`
}

// DefaultConfig returns the env defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RecoveryTimeout:  30 * time.Second,
		MaxResponseSize:  64 * 1024,
	}
}
