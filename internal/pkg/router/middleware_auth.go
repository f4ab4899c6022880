package router

import (
	"crypto/subtle"
	"net/http"
)

// middlewareAuthentication rejects requests whose x-api-key header does not
// match the configured admin key. The comparison is constant-time so a
// timing side channel never leaks how many leading bytes matched.
func middlewareAuthentication(apiKey string, publicEndpoints map[string]map[string]struct{}) func(next http.Handler) http.Handler {
	apiKeyBytes := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := matchedRoutePath(r)

			if s, ok := publicEndpoints[r.Method]; ok {
				if _, skip := s[path]; skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			got := []byte(r.Header.Get("x-api-key"))
			if len(got) == 0 || subtle.ConstantTimeCompare(got, apiKeyBytes) != 1 {
				writeJSON(w, map[string]string{"message": "authentication required"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
