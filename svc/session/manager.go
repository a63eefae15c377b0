package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/chatblast/pkg/cookie"
	"github.com/dmitrymomot/chatblast/pkg/device"
	"github.com/dmitrymomot/chatblast/pkg/logger"
	"github.com/dmitrymomot/chatblast/pkg/metrics"
	"github.com/dmitrymomot/chatblast/pkg/realtime"
	"github.com/dmitrymomot/chatblast/svc/identity"
)

// Manager issues and revokes sessions.
type Manager struct {
	store    Store
	cookies  *cookie.Manager
	realtime Realtime
	log      *slog.Logger
	now      func() time.Time
	newToken func() (string, error)
	maxAge   time.Duration
}

// NewManager returns a Manager issuing sessions into store and their
// cookies through cookies.
func NewManager(store Store, cookies *cookie.Manager, opts ...Option) *Manager {
	o := buildOptions(opts)
	return &Manager{
		store:    store,
		cookies:  cookies,
		realtime: o.realtime,
		log:      o.logger.With(logger.Component("session.manager")),
		now:      o.now,
		newToken: o.newToken,
		maxAge:   o.config.MaxAge,
	}
}

// Issue activates the profile's session and writes its token cookie.
//
// The profile keeps a single session: an inactive one gets a fresh token,
// an active one keeps its token so other devices stay signed in. The request
// fingerprint and IP are merged either way.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, r *http.Request, p *identity.Profile) (*Session, error) {
	tok, err := m.newToken()
	if err != nil {
		return nil, errors.Join(ErrTokenGeneration, err)
	}

	info := device.Resolve(r)
	sess, err := m.store.Activate(ctx, ActivateParams{
		ProfileID:   p.ID,
		Token:       tok,
		Fingerprint: info.Fingerprint,
		IP:          info.IP,
		At:          m.now(),
	})
	if err != nil {
		return nil, err
	}

	m.cookies.Set(w, IssueCookieName(p), sess.Token, cookie.WithTTL(m.maxAge))
	metrics.SessionIssued(p.Kind.String())

	m.log.DebugContext(ctx, "session issued",
		logger.ProfileID(p.ID),
		logger.SessionID(sess.ID),
	)
	return sess, nil
}

// Logout deactivates the session behind res, drops the profile's realtime
// connections and clears the cookie slot res was read from.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, res *Result) error {
	if err := m.deactivate(ctx, res.Session); err != nil {
		return err
	}
	m.cookies.Delete(w, res.CookieName)
	metrics.SessionsDeactivated("logout", 1)
	return nil
}

func (m *Manager) deactivate(ctx context.Context, s *Session) error {
	if err := m.store.Deactivate(ctx, s.ID); err != nil {
		return err
	}
	n := m.realtime.DisconnectRoom(realtime.ProfileRoom(s.ProfileID))
	metrics.RealtimeForcedDisconnects("session_deactivated", n)
	return nil
}
