package tenant

import (
	"net/http"
	"strings"
)

// Resolver extracts a tenant reference from a request. It returns "" when
// the request carries none.
type Resolver func(r *http.Request) string

// RefererResolver reads the reference from a Referer of the form
// <baseURL>/integrations/<ref>. The reference is the last path segment.
func RefererResolver(baseURL string) Resolver {
	marker := strings.TrimSuffix(baseURL, "/") + "/integrations/"
	return func(r *http.Request) string {
		ref := r.Referer()
		if !strings.Contains(ref, marker) {
			return ""
		}
		if i := strings.IndexAny(ref, "?#"); i >= 0 {
			ref = ref[:i]
		}
		ref = strings.TrimSuffix(ref, "/")
		return ref[strings.LastIndex(ref, "/")+1:]
	}
}
