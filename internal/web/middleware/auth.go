package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/JonMunkholm/sheetsections/internal/core"
	"github.com/JonMunkholm/sheetsections/internal/logging"
)

// ErrorFunc writes an error response. The web package passes its own
// renderer so auth failures look like every other API error.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error, status int)

// APIKeyAuth rejects requests without a valid X-API-Key header.
// With no keys configured every request is rejected.
func APIKeyAuth(keys []string, onError ErrorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")

			var err error
			status := http.StatusUnauthorized
			switch {
			case key == "":
				err = core.ErrMissingAPIKey
			case !validAPIKey(key, keys):
				err = core.ErrInvalidAPIKey
				status = http.StatusForbidden
			}

			if err != nil {
				logging.WithFields(r.Context(),
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				).Warn("auth: " + err.Error())
				onError(w, r, err, status)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validAPIKey compares key against every configured key in constant time.
func validAPIKey(key string, keys []string) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return match == 1
}
