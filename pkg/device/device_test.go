package device_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatblast/pkg/device"
)

func TestIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "10.0.0.1:1234", want: "10.0.0.1"},
		{name: "cloudflare first", headers: map[string]string{"CF-Connecting-IP": "1.1.1.1", "X-Forwarded-For": "2.2.2.2"}, remote: "10.0.0.1:1", want: "1.1.1.1"},
		{name: "first valid forwarded", headers: map[string]string{"X-Forwarded-For": "garbage, 3.3.3.3, 4.4.4.4"}, remote: "10.0.0.1:1", want: "3.3.3.3"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "5.5.5.5"}, remote: "10.0.0.1:1", want: "5.5.5.5"},
		{name: "invalid headers fall back", headers: map[string]string{"X-Real-IP": "nope"}, remote: "10.0.0.2:1", want: "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, device.IP(req))
		})
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	newReq := func(ua string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", ua)
		req.Header.Set("Accept-Language", "en")
		return req
	}

	a := device.Fingerprint(newReq("firefox"))
	b := device.Fingerprint(newReq("firefox"))
	c := device.Fingerprint(newReq("chrome"))

	assert.Len(t, a, 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got device.Info
	h := device.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := device.FromContext(r.Context())
		require.True(t, ok)
		got = info
		assert.Equal(t, info, device.Resolve(r))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "9.9.9.9:80"
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "9.9.9.9", got.IP)
	assert.NotEmpty(t, got.Fingerprint)
}
