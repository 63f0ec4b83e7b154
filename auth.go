package audiostash

import (
	"crypto/subtle"
	"net/http"
)

// Scope is the kind of access a route needs
type Scope int

const (
	// ScopeUpload covers routes that write to storage or start jobs. It
	// includes ScopeRead.
	ScopeUpload Scope = iota
	// ScopeRead covers polling jobs and searching their transcripts
	ScopeRead
)

// AuthMiddleware checks callers against the configured upload credentials
// (basic auth or api_keys) and read-only keys (read_keys).
type AuthMiddleware struct {
	config *AuthConfig
}

// NewAuthMiddleware creates a middleware for config, which may be nil
func NewAuthMiddleware(config *AuthConfig) *AuthMiddleware {
	return &AuthMiddleware{config: config}
}

// IsEnabled reports whether requests are checked at all
func (a *AuthMiddleware) IsEnabled() bool {
	return a.config != nil && a.config.Enabled
}

// Require lets a request through to next only when its credentials grant
// scope. Unknown credentials get 401, known ones lacking the scope 403.
func (a *AuthMiddleware) Require(scope Scope, next http.HandlerFunc) http.HandlerFunc {
	if !a.IsEnabled() {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		granted, ok := a.scopeOf(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="AudioStash"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if granted != ScopeUpload && granted != scope {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// scopeOf resolves the credentials of r. A key in the X-API-Key header wins
// over the api_key query parameter, which wins over basic auth.
func (a *AuthMiddleware) scopeOf(r *http.Request) (Scope, bool) {
	key := r.Header.Get("X-API-Key")
	if key == "" {
		key = r.URL.Query().Get("api_key")
	}
	if key != "" {
		switch {
		case matchAny(key, a.config.APIKeys):
			return ScopeUpload, true
		case matchAny(key, a.config.ReadKeys):
			return ScopeRead, true
		}
		return 0, false
	}

	username, password, ok := r.BasicAuth()
	if !ok || a.config.Username == "" {
		return 0, false
	}
	// Both sides are compared to keep the timing independent of which failed.
	userOK := secureCompare(username, a.config.Username)
	passOK := secureCompare(password, a.config.Password)
	return ScopeUpload, userOK && passOK
}

func matchAny(key string, keys []string) bool {
	for _, k := range keys {
		if secureCompare(key, k) {
			return true
		}
	}
	return false
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
