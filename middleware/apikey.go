package middleware

import (
	"net/http"

	"coursegen-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// APIKeyMiddleware requires the X-API-Key header on mutating admin endpoints
// when apiKey is configured. Paths in publicPaths are always allowed, and an
// empty apiKey disables the check entirely.
func APIKeyMiddleware(apiKey string, publicPaths []string) func(http.Handler) http.Handler {
	publicPathMap := make(map[string]bool)
	for _, path := range publicPaths {
		publicPathMap[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" || publicPathMap[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get("X-API-Key")
			if providedKey == "" {
				log.Warnf("%s Missing API key from %s for %s", logcolors.LogAPIKey, r.RemoteAddr, r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"API key required","message":"Provide a valid API key via X-API-Key header"}`))
				return
			}

			if providedKey != apiKey {
				log.Warnf("%s Invalid API key from %s for %s", logcolors.LogAPIKey, r.RemoteAddr, r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Invalid API key","message":"The provided API key is not valid"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
