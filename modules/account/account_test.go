package account_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/chatblast/handler"
	"github.com/dmitrymomot/chatblast/modules/account"
	"github.com/dmitrymomot/chatblast/pkg/cookie"
	"github.com/dmitrymomot/chatblast/pkg/realtime"
	"github.com/dmitrymomot/chatblast/svc/delegated"
	"github.com/dmitrymomot/chatblast/svc/identity"
	"github.com/dmitrymomot/chatblast/svc/presence"
	"github.com/dmitrymomot/chatblast/svc/session"
	"github.com/dmitrymomot/chatblast/svc/tenant"
)

const baseURL = "https://chat.example.com"

type env struct {
	srv      *httptest.Server
	upstream *httptest.Server
	tenants  *tenant.MemoryStore
	profiles *identity.Service
}

func newEnv(t *testing.T, cfg account.Config) *env {
	t.Helper()

	// the tenant verification endpoint: "Bearer <token>" maps to an identity
	users := map[string]string{"tok-1": "ext-1", "tok-2": "ext-2"}
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := users[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "username": "Alice"})
	}))
	t.Cleanup(upstream.Close)

	e := &env{upstream: upstream, tenants: tenant.NewMemoryStore()}
	cookies := cookie.New()
	dir := tenant.NewDirectory(e.tenants, tenant.WithBaseURL(baseURL))
	e.profiles = identity.NewService(identity.NewMemoryStore(),
		identity.WithBcryptCost(bcrypt.MinCost),
		identity.WithDigitSource(func() int { return 7 }),
	)

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)
	store := session.NewMemoryStore()
	resolver := session.NewResolver(dir, store, e.profiles, cookies, session.WithRealtime(hub))
	manager := session.NewManager(store, cookies, session.WithRealtime(hub))
	tracker := presence.New(hub, e.profiles)

	api, err := account.NewService(cfg, account.Deps{
		Tenants:  dir,
		Profiles: e.profiles,
		Resolver: resolver,
		Sessions: manager,
		Presence: tracker,
		Verifier: delegated.NewVerifier(delegated.WithHTTPClient(upstream.Client())),
		Cookies:  cookies,
	})
	require.NoError(t, err)

	e.srv = httptest.NewServer(account.Router(account.RouterOptions{
		API:      api,
		Realtime: account.NewRealtimeEndpoint(cfg, hub, resolver, tracker, nil),
	}))
	t.Cleanup(e.srv.Close)
	return e
}

func (e *env) tenant(t *testing.T, strategy tenant.Strategy) *tenant.Tenant {
	t.Helper()
	tn := &tenant.Tenant{
		ID:        uuid.NewString(),
		OwnerID:   uuid.NewString(),
		Name:      "support",
		State:     tenant.StateActive,
		Strategy:  strategy,
		Domain:    tenant.Domain{Value: "example.org"},
		CreatedAt: time.Now().UTC(),
	}
	if strategy == tenant.DelegatedAuth {
		tn.Verification = &tenant.Verification{
			URL:            e.upstream.URL + "/user/@me",
			TokenPlacement: tenant.PlacementHeader,
			TokenKey:       "Bearer",
		}
	}
	require.NoError(t, e.tenants.Insert(context.Background(), tn))
	return tn
}

type reqOption func(*http.Request)

func withCookie(c *http.Cookie) reqOption {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value}) }
}

func withTenant(id string) reqOption {
	return func(r *http.Request) { r.Header.Set("Referer", baseURL+"/integrations/"+id) }
}

func withHeader(k, v string) reqOption {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (e *env) do(t *testing.T, method, path string, body any, opts ...reqOption) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (e *env) anonymousEntry(t *testing.T, tn *tenant.Tenant) (identity.View, *http.Cookie) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/integration/"+tn.ID+"/profile/oauth", nil, withTenant(tn.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c := findCookie(resp, session.TenantCookie(tn.ID))
	require.NotNil(t, c)
	return decode[identity.View](t, resp), c
}

func (e *env) signup(t *testing.T, username string) *http.Cookie {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/profile", map[string]string{
		"username": username,
		"password": "Password1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := findCookie(resp, session.DefaultCookie)
	require.NotNil(t, c)
	return c
}

func TestRegisteredLogin(t *testing.T) {
	t.Parallel()
	e := newEnv(t, account.DefaultConfig())
	e.signup(t, "alice")

	t.Run("login sets the default cookie", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "Password1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		c := findCookie(resp, session.DefaultCookie)
		require.NotNil(t, c)
		assert.NotEmpty(t, c.Value)

		view := decode[identity.View](t, resp)
		assert.Equal(t, identity.Registered, view.Kind)
		assert.Equal(t, "alice", view.Username)

		me := e.do(t, http.MethodGet, "/api/profile/@me", nil, withCookie(c))
		require.Equal(t, http.StatusOK, me.StatusCode)
		assert.Equal(t, view.ID, decode[identity.View](t, me).ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "Password2"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "account.invalid_credentials", errorCode(t, resp))
	})

	t.Run("already authenticated", func(t *testing.T) {
		c := e.signup(t, "bob")
		resp := e.do(t, http.MethodPost, "/api/login", map[string]string{"username": "bob", "password": "Password1"}, withCookie(c))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("no cookie", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/api/profile/@me", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAnonymousEntry(t *testing.T) {
	t.Parallel()
	e := newEnv(t, account.DefaultConfig())
	tn := e.tenant(t, tenant.AnonymousAuth)

	view, c := e.anonymousEntry(t, tn)
	assert.Equal(t, identity.Anonymous, view.Kind)
	assert.True(t, strings.HasPrefix(view.Username, "ano"))
	assert.Equal(t, tn.ID+"-token", c.Name)

	p, err := e.profiles.Get(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, tn.ID, p.TenantID)

	t.Run("resolves under the tenant", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/api/profile/@me", nil, withCookie(c), withTenant(tn.ID))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, view.ID, decode[identity.View](t, resp).ID)
	})

	t.Run("second entry while authenticated", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/api/integration/"+tn.ID+"/profile/oauth", nil, withCookie(c), withTenant(tn.ID))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/api/integration/"+uuid.NewString()+"/profile/oauth", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	e := newEnv(t, account.DefaultConfig())
	tn := e.tenant(t, tenant.AnonymousAuth)
	_, c := e.anonymousEntry(t, tn)

	resp := e.do(t, http.MethodPost, "/api/disconnect", nil, withCookie(c), withTenant(tn.ID))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	cleared := findCookie(resp, c.Name)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	resp = e.do(t, http.MethodGet, "/api/profile/@me", nil, withCookie(c), withTenant(tn.ID))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	cleared = findCookie(resp, c.Name)
	require.NotNil(t, cleared, "stale response must clear the same cookie")
	assert.Negative(t, cleared.MaxAge)
	assert.Equal(t, handler.CodeRefresh, errorCode(t, resp))
}

func TestDelegatedEntry(t *testing.T) {
	t.Parallel()
	e := newEnv(t, account.DefaultConfig())
	tn := e.tenant(t, tenant.DelegatedAuth)

	_, err := e.profiles.CreateProfile(context.Background(), identity.CreateParams{
		Kind:       identity.Delegated,
		Username:   "alice",
		TenantID:   tn.ID,
		ExternalID: "someone-else",
	})
	require.NoError(t, err)

	enter := func(token string) *http.Response {
		return e.do(t, http.MethodPost, "/api/integration/"+tn.ID+"/profile/oauth", nil,
			withTenant(tn.ID),
			withHeader("Authorization", "Token "+token),
		)
	}

	resp := enter("tok-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decode[identity.View](t, resp)
	assert.Equal(t, identity.Delegated, first.Kind)
	assert.Equal(t, "alice7", first.Username)
	require.NotNil(t, findCookie(resp, session.TenantCookie(tn.ID)))

	resp = enter("tok-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, first.ID, decode[identity.View](t, resp).ID)

	t.Run("rejected token", func(t *testing.T) {
		resp := enter("nope")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, handler.CodeUpstream, errorCode(t, resp))
	})

	t.Run("missing token", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/api/integration/"+tn.ID+"/profile/oauth", nil, withTenant(tn.ID))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestTyping(t *testing.T) {
	t.Parallel()
	e := newEnv(t, account.DefaultConfig())
	tn := e.tenant(t, tenant.AnonymousAuth)
	view, c := e.anonymousEntry(t, tn)
	opts := []reqOption{withCookie(c), withTenant(tn.ID)}

	resp := e.do(t, http.MethodPut, "/api/typing", map[string]bool{"is_typing": true}, opts...)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = e.do(t, http.MethodPut, "/api/typing", map[string]bool{"is_typing": true}, opts...)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/profiles/typing", nil, opts...)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	typing := decode[[]identity.View](t, resp)
	require.Len(t, typing, 1)
	assert.Equal(t, view.ID, typing[0].ID)

	resp = e.do(t, http.MethodPut, "/api/typing", map[string]bool{"is_typing": false}, opts...)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = e.do(t, http.MethodGet, "/api/profiles/typing", nil, opts...)
	assert.Empty(t, decode[[]identity.View](t, resp))
}

func TestIntegrations(t *testing.T) {
	t.Parallel()
	e := newEnv(t, account.DefaultConfig())
	owner := e.signup(t, "carol")

	resp := e.do(t, http.MethodPost, "/api/profile/@me/integrations", map[string]any{
		"name":     "support",
		"strategy": tenant.AnonymousAuth,
		"domain":   "Example.org",
	}, withCookie(owner))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[tenant.Tenant](t, resp)
	assert.Equal(t, tenant.StateInactive, created.State)
	assert.Equal(t, "example.org", created.Domain.Value)

	t.Run("list", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/api/profile/@me/integrations", nil, withCookie(owner))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]tenant.Tenant](t, resp), 1)
	})

	t.Run("activate", func(t *testing.T) {
		resp := e.do(t, http.MethodPatch, "/api/profile/@me/integration/"+created.ID,
			map[string]any{"state": tenant.StateActive}, withCookie(owner))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, tenant.StateActive, decode[tenant.Tenant](t, resp).State)
	})

	t.Run("unknown patch field", func(t *testing.T) {
		resp := e.do(t, http.MethodPatch, "/api/profile/@me/integration/"+created.ID,
			map[string]any{"owner_id": "me"}, withCookie(owner))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("public summary", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/api/integration/"+created.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, created.ID, decode[tenant.Summary](t, resp).ID)
	})

	t.Run("other owner", func(t *testing.T) {
		other := e.signup(t, "dave")
		resp := e.do(t, http.MethodGet, "/api/profile/@me/integration/"+created.ID, nil, withCookie(other))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("errored state needs the manage permission", func(t *testing.T) {
		resp := e.do(t, http.MethodPatch, "/api/profile/@me/integration/"+created.ID,
			map[string]any{"state": tenant.StateErrored}, withCookie(owner))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "tenant.state_not_allowed", errorCode(t, resp))

		admin := e.signup(t, "erin")
		_, err := e.profiles.Grant(context.Background(), "erin", tenant.PermissionManage)
		require.NoError(t, err)

		resp = e.do(t, http.MethodPatch, "/api/profile/@me/integration/"+created.ID,
			map[string]any{"state": tenant.StateErrored}, withCookie(admin))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		patched := decode[tenant.Tenant](t, resp)
		assert.Equal(t, tenant.StateErrored, patched.State)
		assert.Equal(t, created.OwnerID, patched.OwnerID)
	})

	t.Run("anonymous profiles cannot own integrations", func(t *testing.T) {
		tn := e.tenant(t, tenant.AnonymousAuth)
		_, c := e.anonymousEntry(t, tn)
		resp := e.do(t, http.MethodGet, "/api/profile/@me/integrations", nil, withCookie(c), withTenant(tn.ID))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	cfg := account.DefaultConfig()
	cfg.LoginLimit = 2
	e := newEnv(t, cfg)

	body := map[string]string{"username": "nobody", "password": "Password1"}
	for range 2 {
		resp := e.do(t, http.MethodPost, "/api/login", body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp := e.do(t, http.MethodPost, "/api/login", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, "account.too_many_requests", errorCode(t, resp))
}

func TestRealtimeEndpoint(t *testing.T) {
	t.Parallel()
	e := newEnv(t, account.DefaultConfig())
	tn := e.tenant(t, tenant.AnonymousAuth)
	view, c := e.anonymousEntry(t, tn)

	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/api/ws"

	t.Run("authenticated", func(t *testing.T) {
		header := http.Header{}
		header.Set("Cookie", c.Name+"="+c.Value)
		header.Set("Referer", baseURL+"/integrations/"+tn.ID)

		ws, _, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.NoError(t, err)
		defer ws.Close()

		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev struct {
			Event string                    `json:"event"`
			Data  presence.ConnectedPayload `json:"data"`
		}
		require.NoError(t, ws.ReadJSON(&ev))
		assert.Equal(t, presence.EventConnected, ev.Event)
		assert.Equal(t, view.ID, ev.Data.ID)
		assert.Equal(t, tn.ID, ev.Data.TenantID)

		resp := e.do(t, http.MethodGet, "/api/profiles/online", nil, withCookie(c), withTenant(tn.ID))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		online := decode[[]identity.View](t, resp)
		require.Len(t, online, 1)
		assert.Equal(t, view.ID, online[0].ID)
	})

	t.Run("unauthenticated is closed", func(t *testing.T) {
		ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer ws.Close()

		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err = ws.ReadMessage()
		assert.Error(t, err)
	})
}
