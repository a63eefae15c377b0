package cookie

import "time"

// Config holds cookie manager configuration
type Config struct {
	Path     string        `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string        `env:"COOKIE_DOMAIN" envDefault:""`
	TTL      time.Duration `env:"COOKIE_TTL" envDefault:"24h"`
	HttpOnly bool          `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
}

// NewFromConfig creates a Manager from cfg. Extra options are applied last.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	configOpts := []Option{WithHTTPOnly(cfg.HttpOnly)}
	if cfg.Path != "" {
		configOpts = append(configOpts, WithPath(cfg.Path))
	}
	if cfg.Domain != "" {
		configOpts = append(configOpts, WithDomain(cfg.Domain))
	}
	if cfg.TTL > 0 {
		configOpts = append(configOpts, WithTTL(cfg.TTL))
	}
	return New(append(configOpts, opts...)...)
}
