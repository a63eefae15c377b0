package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/chatblast/pkg/logger"
	"github.com/dmitrymomot/chatblast/pkg/realtime"
	"github.com/dmitrymomot/chatblast/pkg/token"
	"github.com/dmitrymomot/chatblast/svc/identity"
	"github.com/dmitrymomot/chatblast/svc/tenant"
)

// TenantResolver resolves the tenant a request was issued from.
type TenantResolver interface {
	ResolveRequest(ctx context.Context, r *http.Request) (*tenant.Tenant, error)
}

// Profiles is the part of the identity store sessions depend on.
type Profiles interface {
	Get(ctx context.Context, id string) (*identity.Profile, error)
	AddVisitedTenant(ctx context.Context, profileID, tenantID string) error
}

// Realtime is the part of the realtime hub sessions depend on.
type Realtime interface {
	DisconnectRoom(room string) int
	Connections() []*realtime.Conn
}

type noRealtime struct{}

func (noRealtime) DisconnectRoom(string) int     { return 0 }
func (noRealtime) Connections() []*realtime.Conn { return nil }

type settings struct {
	logger   *slog.Logger
	now      func() time.Time
	realtime Realtime
	config   Config
	newToken func() (string, error)
}

// Option configures the Resolver, Manager and Sweeper.
type Option func(*settings)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *settings) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the time source for activation and sweeping.
func WithClock(now func() time.Time) Option {
	return func(o *settings) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRealtime sets the hub whose connections are dropped on deactivation.
func WithRealtime(rt Realtime) Option {
	return func(o *settings) {
		if rt != nil {
			o.realtime = rt
		}
	}
}

// WithConfig applies the non-zero fields of cfg.
func WithConfig(cfg Config) Option {
	return func(o *settings) {
		if cfg.MaxAge > 0 {
			o.config.MaxAge = cfg.MaxAge
		}
		if cfg.SweepInterval > 0 {
			o.config.SweepInterval = cfg.SweepInterval
		}
	}
}

// WithTokenGenerator replaces the session token source.
func WithTokenGenerator(fn func() (string, error)) Option {
	return func(o *settings) {
		if fn != nil {
			o.newToken = fn
		}
	}
}

func buildOptions(opts []Option) settings {
	o := settings{
		logger:   logger.Discard(),
		now:      time.Now,
		realtime: noRealtime{},
		config:   DefaultConfig(),
		newToken: token.Session,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
