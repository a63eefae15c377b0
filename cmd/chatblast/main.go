package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/chatblast/modules/account"
	"github.com/dmitrymomot/chatblast/pkg/config"
	"github.com/dmitrymomot/chatblast/pkg/cookie"
	"github.com/dmitrymomot/chatblast/pkg/device"
	"github.com/dmitrymomot/chatblast/pkg/httpserver"
	"github.com/dmitrymomot/chatblast/pkg/logger"
	"github.com/dmitrymomot/chatblast/pkg/metrics"
	"github.com/dmitrymomot/chatblast/pkg/mongo"
	"github.com/dmitrymomot/chatblast/pkg/ratelimiter"
	"github.com/dmitrymomot/chatblast/pkg/realtime"
	"github.com/dmitrymomot/chatblast/pkg/redis"
	"github.com/dmitrymomot/chatblast/pkg/requestid"
	"github.com/dmitrymomot/chatblast/svc/delegated"
	"github.com/dmitrymomot/chatblast/svc/identity"
	"github.com/dmitrymomot/chatblast/svc/presence"
	"github.com/dmitrymomot/chatblast/svc/session"
	"github.com/dmitrymomot/chatblast/svc/tenant"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"chatblast"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatblast: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := config.MustLoad[appConfig]()
	log := logger.New(
		logger.WithEnvironment(app.Env, app.ServiceName),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenant.LoggerExtractor(),
			session.LoggerExtractor(),
		),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongo.Connect(ctx, config.MustLoad[mongo.Config]())
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	redisClient, err := redis.Connect(ctx, config.MustLoad[redis.Config]())
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	tenantStore := tenant.NewMongoStore(db)
	identityStore := identity.NewMongoStore(db)
	sessionStore := session.NewMongoStore(db)
	for _, s := range []interface {
		EnsureIndexes(context.Context) error
	}{tenantStore, identityStore, sessionStore} {
		if err := s.EnsureIndexes(ctx); err != nil {
			return err
		}
	}

	tenantCfg := config.MustLoad[tenant.Config]()
	tenants := tenant.NewDirectory(tenantStore,
		tenant.WithBaseURL(tenantCfg.BaseURL),
		tenant.WithCache(tenant.NewRedisCache(redisClient), tenantCfg.CacheTTL),
		tenant.WithLogger(log),
	)
	profiles := identity.NewService(identityStore, identity.WithLogger(log))

	// chatblast grant <username|email> <permission>...
	if args := os.Args[1:]; len(args) > 0 && args[0] == "grant" {
		if len(args) < 3 {
			return errors.New("usage: chatblast grant <username|email> <permission>...")
		}
		_, err := profiles.Grant(ctx, args[1], args[2:]...)
		return err
	}

	hub := realtime.NewHub(
		realtime.WithLogger(log),
		realtime.WithAddHook(func(*realtime.Conn) { metrics.RealtimeConnected() }),
		realtime.WithRemoveHook(func(*realtime.Conn) { metrics.RealtimeDisconnected() }),
	)

	cookies := cookie.NewFromConfig(config.MustLoad[cookie.Config]())
	sessionOpts := []session.Option{
		session.WithLogger(log),
		session.WithRealtime(hub),
		session.WithConfig(config.MustLoad[session.Config]()),
	}
	resolver := session.NewResolver(tenants, sessionStore, profiles, cookies, sessionOpts...)
	sessions := session.NewManager(sessionStore, cookies, sessionOpts...)
	sweeper := session.NewSweeper(sessionStore, profiles, sessionOpts...)

	tracker := presence.New(hub, profiles,
		presence.WithLogger(log),
		presence.WithConfig(config.MustLoad[presence.Config]()),
	)
	verifier := delegated.NewVerifier(
		delegated.WithLogger(log),
		delegated.WithConfig(config.MustLoad[delegated.Config]()),
	)

	accountCfg := config.MustLoad[account.Config]()
	api, err := account.NewService(accountCfg, account.Deps{
		Tenants:    tenants,
		Profiles:   profiles,
		Resolver:   resolver,
		Sessions:   sessions,
		Presence:   tracker,
		Verifier:   verifier,
		RateLimits: ratelimiter.NewRedisStore(redisClient),
		Cookies:    cookies,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer, requestid.Middleware, device.Middleware, metrics.Middleware)
	r.Get("/healthz", healthz(log, mongo.Healthcheck(mongoClient), redis.Healthcheck(redisClient)))
	r.Handle("/metrics", metrics.Handler())
	r.Mount("/", account.Router(account.RouterOptions{
		API:      api,
		Realtime: account.NewRealtimeEndpoint(accountCfg, hub, resolver, tracker, log),
	}))

	srv := httpserver.NewFromConfig(config.MustLoad[httpserver.Config](), httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx, r) })
	g.Go(func() error { return sweeper.Run(ctx) })
	g.Go(func() error { return tracker.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		// hijacked websockets outlive the http server shutdown
		hub.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("chatblast stopped with error", logger.Error(err))
		return err
	}
	log.Info("chatblast stopped")
	return nil
}

func healthz(log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var errs []error
		for _, check := range checks {
			if err := check(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			log.WarnContext(ctx, "healthcheck failed", logger.Error(err))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
