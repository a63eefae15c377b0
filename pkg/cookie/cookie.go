package cookie

import (
	"errors"
	"net/http"
	"time"
)

// DefaultTTL is the lifetime of an issued session cookie.
const DefaultTTL = 24 * time.Hour

type Manager struct {
	defaults Options
	now      func() time.Time
}

// New creates a manager. Defaults: Path "/", HttpOnly, SameSite=None,
// Secure and a 24h lifetime.
func New(opts ...Option) *Manager {
	defaults := Options{
		Path:     "/",
		TTL:      DefaultTTL,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	}
	return &Manager{
		defaults: applyOptions(defaults, opts),
		now:      time.Now,
	}
}

// Set writes a cookie that expires after the configured TTL.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	options := applyOptions(m.defaults, opts)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		Expires:  m.now().Add(options.TTL),
		MaxAge:   int(options.TTL.Seconds()),
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
}

// Get returns the value of the named cookie, or ErrCookieNotFound when it is
// absent or empty.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	if c.Value == "" {
		return "", ErrCookieNotFound
	}
	return c.Value, nil
}

// Has reports whether a non-empty cookie with the given name was sent.
func (m *Manager) Has(r *http.Request, name string) bool {
	_, err := m.Get(r, name)
	return err == nil
}

// Delete clears a cookie using the same attributes Set writes.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.defaults.Path,
		Domain:   m.defaults.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.defaults.Secure,
		HttpOnly: m.defaults.HttpOnly,
		SameSite: m.defaults.SameSite,
	})
}
