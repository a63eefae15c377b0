package tenant

import "time"

// Config configures the Directory.
type Config struct {
	// BaseURL is the origin that serves the widget pages,
	// <BaseURL>/integrations/<id>.
	BaseURL  string        `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	CacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`
}
