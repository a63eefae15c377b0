package delegated

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/chatblast/pkg/logger"
	"github.com/dmitrymomot/chatblast/pkg/metrics"
	"github.com/dmitrymomot/chatblast/svc/identity"
	"github.com/dmitrymomot/chatblast/svc/tenant"
)

// APIKeyHeader carries the tenant's API key on verification calls.
const APIKeyHeader = "X-Api-Key"

var (
	errCircuitOpen   = errors.New("circuit open")
	errNotConfigured = errors.New("verification url or token key missing")
)

// Verifier calls tenant verification endpoints. Safe for concurrent use.
type Verifier struct {
	client   *http.Client
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
	breakers *breakers
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithHTTPClient replaces the HTTP client, which then owns the request timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) {
		if c != nil {
			v.client = c
		}
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) {
		if l != nil {
			v.log = l
		}
	}
}

// WithConfig applies cfg.
func WithConfig(cfg Config) Option {
	return func(v *Verifier) { v.cfg = cfg }
}

func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewVerifier returns a Verifier with one circuit breaker per host.
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{
		cfg: DefaultConfig(),
		log: logger.Discard(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.client == nil {
		v.client = &http.Client{
			Timeout: v.cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if v.cfg.MaxResponseSize <= 0 {
		v.cfg.MaxResponseSize = DefaultConfig().MaxResponseSize
	}
	v.log = v.log.With(logger.Component("delegated"))
	v.breakers = newBreakers(v.cfg, v.now)
	return v
}

type verifyResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Verify exchanges token for the identity the tenant vouches for.
func (v *Verifier) Verify(ctx context.Context, cfg tenant.Verification, token string) (identity.ExternalIdentity, error) {
	if token == "" {
		return identity.ExternalIdentity{}, ErrMissingToken
	}

	req, host, err := buildRequest(ctx, cfg, token)
	if err != nil {
		return identity.ExternalIdentity{}, v.fail(ctx, "", err)
	}

	b := v.breakers.get(host)
	if !b.allow() {
		metrics.Verification("circuit_open")
		return identity.ExternalIdentity{}, v.fail(ctx, host, errCircuitOpen)
	}

	ext, err := v.do(req)
	if err != nil {
		b.failure()
		return identity.ExternalIdentity{}, v.fail(ctx, host, err)
	}
	b.success()
	metrics.Verification("ok")
	return ext, nil
}

func (v *Verifier) do(req *http.Request) (identity.ExternalIdentity, error) {
	resp, err := v.client.Do(req)
	if err != nil {
		return identity.ExternalIdentity{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, v.cfg.MaxResponseSize))
		return identity.ExternalIdentity{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, v.cfg.MaxResponseSize)).Decode(&body); err != nil {
		return identity.ExternalIdentity{}, fmt.Errorf("decode response: %w", err)
	}
	if body.ID == "" || body.Username == "" {
		return identity.ExternalIdentity{}, errors.New("response lacks id or username")
	}
	return identity.ExternalIdentity{ID: body.ID, Username: body.Username, Avatar: body.Avatar}, nil
}

func (v *Verifier) fail(ctx context.Context, host string, cause error) error {
	if !errors.Is(cause, errCircuitOpen) {
		metrics.Verification("failed")
	}
	v.log.WarnContext(ctx, "delegated verification failed",
		slog.String("host", host),
		logger.TenantID(tenant.IDFromContext(ctx)),
		logger.Error(cause),
	)
	return ErrVerificationFailed
}

func buildRequest(ctx context.Context, cfg tenant.Verification, token string) (*http.Request, string, error) {
	if cfg.URL == "" || cfg.TokenKey == "" {
		return nil, "", errNotConfigured
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, "", fmt.Errorf("invalid verification url %q", cfg.URL)
	}

	var body io.Reader
	switch cfg.TokenPlacement {
	case tenant.PlacementQuery:
		q := u.Query()
		q.Set(cfg.TokenKey, token)
		u.RawQuery = q.Encode()
	case tenant.PlacementFormBody:
		body = strings.NewReader(url.Values{cfg.TokenKey: {token}}.Encode())
	case tenant.PlacementHeader:
	default:
		return nil, "", fmt.Errorf("unknown token placement %d", cfg.TokenPlacement)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), body)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "chatblast-verifier/1.0")

	switch cfg.TokenPlacement {
	case tenant.PlacementHeader:
		req.Header.Set("Authorization", cfg.TokenKey+" "+token)
	case tenant.PlacementFormBody:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cfg.APIKey != "" {
		req.Header.Set(APIKeyHeader, cfg.APIKey)
	}
	return req, u.Host, nil
}

// TokenFromRequest extracts the caller token from "Authorization: Token <t>".
func TokenFromRequest(r *http.Request) (string, error) {
	const prefix = "Token "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	tok := strings.TrimSpace(h[len(prefix):])
	if tok == "" {
		return "", ErrMissingToken
	}
	return tok, nil
}
