package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/chatblast/binder"
	"github.com/dmitrymomot/chatblast/handler"
	"github.com/dmitrymomot/chatblast/pkg/cookie"
	"github.com/dmitrymomot/chatblast/pkg/device"
	"github.com/dmitrymomot/chatblast/pkg/logger"
	"github.com/dmitrymomot/chatblast/pkg/ratelimiter"
	"github.com/dmitrymomot/chatblast/svc/identity"
	"github.com/dmitrymomot/chatblast/svc/presence"
	"github.com/dmitrymomot/chatblast/svc/session"
	"github.com/dmitrymomot/chatblast/svc/tenant"
)

// Verifier exchanges a caller token for the identity a tenant vouches for.
type Verifier interface {
	Verify(ctx context.Context, cfg tenant.Verification, token string) (identity.ExternalIdentity, error)
}

// Deps are the services the JSON API is built on.
type Deps struct {
	Tenants  *tenant.Directory
	Profiles *identity.Service
	Resolver *session.Resolver
	Sessions *session.Manager
	Presence *presence.Tracker
	Verifier Verifier
	// RateLimits backs the per-IP limiters. Nil uses an in-process store.
	RateLimits ratelimiter.Store
	Cookies    *cookie.Manager
	Logger     *slog.Logger
}

// Service serves the account, profile and integration endpoints.
type Service struct {
	cfg      Config
	tenants  *tenant.Directory
	profiles *identity.Service
	resolver *session.Resolver
	sessions *session.Manager
	presence *presence.Tracker
	verifier Verifier
	log      *slog.Logger

	onError      handler.HTTPErrorFunc
	errorHandler handler.ErrorHandler[handler.Context]

	oauthLimiter  *ratelimiter.Limiter
	signupLimiter *ratelimiter.Limiter
	loginLimiter  *ratelimiter.Limiter
	domainLimiter *ratelimiter.Limiter
}

func NewService(cfg Config, deps Deps) (*Service, error) {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("account"))

	store := deps.RateLimits
	if store == nil {
		store = ratelimiter.NewMemoryStore()
	}

	s := &Service{
		cfg:          cfg,
		tenants:      deps.Tenants,
		profiles:     deps.Profiles,
		resolver:     deps.Resolver,
		sessions:     deps.Sessions,
		presence:     deps.Presence,
		verifier:     deps.Verifier,
		log:          log,
		onError:      handler.NewHTTPErrorFunc(log, deps.Cookies),
		errorHandler: handler.NewErrorHandler(log, deps.Cookies),
	}

	var err error
	if s.oauthLimiter, err = ratelimiter.New(store, "oauth", cfg.oauthRule()); err != nil {
		return nil, errors.Join(errors.New("oauth rate limit"), err)
	}
	if s.signupLimiter, err = ratelimiter.New(store, "signup", cfg.signupRule()); err != nil {
		return nil, errors.Join(errors.New("signup rate limit"), err)
	}
	if s.loginLimiter, err = ratelimiter.New(store, "login", cfg.loginRule()); err != nil {
		return nil, errors.Join(errors.New("login rate limit"), err)
	}
	if s.domainLimiter, err = ratelimiter.New(store, "domain_verification", cfg.domainRule()); err != nil {
		return nil, errors.Join(errors.New("domain verification rate limit"), err)
	}
	return s, nil
}

func byIP(r *http.Request) string { return device.IP(r) }

// limit guards a route with l, answering rejections in the JSON envelope.
func (s *Service) limit(l *ratelimiter.Limiter) func(http.Handler) http.Handler {
	return ratelimiter.Middleware(l, byIP,
		ratelimiter.WithDeniedHandler(func(w http.ResponseWriter, r *http.Request) {
			if err := handler.JSONError(ErrTooManyRequests).Render(w, r); err != nil {
				s.log.ErrorContext(r.Context(), "render rate limit response", logger.Error(err))
			}
		}),
		ratelimiter.WithErrorHook(func(r *http.Request, err error) {
			s.log.WarnContext(r.Context(), "rate limiter unavailable", logger.Error(err))
		}),
	)
}

func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/integration/{id}", handler.Wrap(s.integrationSummary,
		handler.WithBinders[handler.Context, integrationRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, integrationRequest](s.errorHandler),
	))

	r.With(s.limit(s.oauthLimiter)).
		Post("/integration/{id}/profile/oauth", handler.Wrap(s.oauth,
			handler.WithBinders[handler.Context, integrationRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, integrationRequest](s.errorHandler),
		))

	r.With(s.limit(s.signupLimiter)).
		Post("/profile", handler.Wrap(s.signup,
			handler.WithBinders[handler.Context, signupRequest](binder.BindJSON()),
			handler.WithErrorHandler[handler.Context, signupRequest](s.errorHandler),
		))

	r.With(s.limit(s.loginLimiter)).
		Post("/login", handler.Wrap(s.login,
			handler.WithBinders[handler.Context, loginRequest](binder.BindJSON()),
			handler.WithErrorHandler[handler.Context, loginRequest](s.errorHandler),
		))

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(s.resolver, s.onError))

		logout := handler.Wrap(s.logout,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		)
		r.Post("/disconnect", logout)
		r.Delete("/profile/@me/session", logout)

		r.Get("/profile/{id}", handler.Wrap(s.getProfile,
			handler.WithBinders[handler.Context, profileRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, profileRequest](s.errorHandler),
		))
		r.Patch("/profile/@me", handler.Wrap(s.patchProfile,
			handler.WithBinders[handler.Context, identity.ProfilePatch](bindProfilePatch),
			handler.WithErrorHandler[handler.Context, identity.ProfilePatch](s.errorHandler),
		))
		r.Get("/profile/{id}/badges", handler.Wrap(s.badges,
			handler.WithBinders[handler.Context, profileRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, profileRequest](s.errorHandler),
		))
		r.Get("/profiles/online", handler.Wrap(s.online,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Get("/profiles/typing", handler.Wrap(s.typing,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Put("/typing", handler.Wrap(s.setTyping,
			handler.WithBinders[handler.Context, typingRequest](binder.BindJSON()),
			handler.WithErrorHandler[handler.Context, typingRequest](s.errorHandler),
		))

		r.Get("/profile/@me/integrations", handler.Wrap(s.listIntegrations,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Post("/profile/@me/integrations", handler.Wrap(s.createIntegration,
			handler.WithBinders[handler.Context, tenant.CreateParams](binder.BindJSON()),
			handler.WithErrorHandler[handler.Context, tenant.CreateParams](s.errorHandler),
		))
		r.Get("/profile/@me/integration/{intid}", handler.Wrap(s.getIntegration,
			handler.WithBinders[handler.Context, ownedIntegrationRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, ownedIntegrationRequest](s.errorHandler),
		))
		r.Patch("/profile/@me/integration/{intid}", handler.Wrap(s.patchIntegration,
			handler.WithBinders[handler.Context, patchIntegrationRequest](binder.Path(chi.URLParam), bindIntegrationPatch),
			handler.WithErrorHandler[handler.Context, patchIntegrationRequest](s.errorHandler),
		))

		r.With(s.limit(s.domainLimiter)).
			Post("/verification/integration/{id}/domain", handler.Wrap(s.verifyDomain,
				handler.WithBinders[handler.Context, integrationRequest](binder.Path(chi.URLParam)),
				handler.WithErrorHandler[handler.Context, integrationRequest](s.errorHandler),
			))
	})

	return r
}

// current returns the resolution stored by session.Middleware.
func current(ctx context.Context) (*session.Result, error) {
	return session.MustFromContext(ctx)
}
