// Package api exposes the garden's read-only JSON views over HTTP using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/grove/internal/checksum"
)

// ConditionalGet tags every response with an ETag derived from the current
// snapshot version and answers 304 when the client already holds it.
// Responses stay cacheable for maxAge seconds.
func ConditionalGet(version func() string, maxAge string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			etag := `"` + checksum.Short(version()) + `"`
			w.Header().Set("ETag", etag)
			w.Header().Set("Cache-Control", "public, max-age="+maxAge)
			if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		c := strings.TrimSpace(candidate)
		if c == "*" || strings.TrimPrefix(c, "W/") == etag {
			return true
		}
	}
	return false
}
