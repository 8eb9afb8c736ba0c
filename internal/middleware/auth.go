package middleware

import (
	"crypto/sha256"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const headerAPIKey = "X-API-Key"

// publicPaths never require a key.
var publicPaths = map[string]bool{
	"/health": true,
}

// APIKeyAuth guards the API with a single shared key whose bcrypt hash is
// configured at startup and may be rotated with SetHash. The key is read
// from X-API-Key, a Bearer token, or the token query parameter (browsers
// cannot set headers on websocket upgrades). Verified keys are remembered by
// digest so bcrypt runs once per distinct key rather than once per request.
type APIKeyAuth struct {
	mu       sync.RWMutex
	hash     []byte
	enabled  bool
	verified sync.Map // [sha256.Size]byte -> struct{}
}

// NewAPIKeyAuth returns an authenticator. When enabled is false every
// request passes through.
func NewAPIKeyAuth(hash string, enabled bool) *APIKeyAuth {
	return &APIKeyAuth{hash: []byte(hash), enabled: enabled}
}

// Handler rejects requests without a valid key with 401.
func (a *APIKeyAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.enabled || publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		key := extractKey(r)
		if key == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing api key")
			return
		}
		if !a.Verify(key) {
			writeJSONError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetHash replaces the bcrypt hash and forgets every verified key.
// An empty hash is ignored.
func (a *APIKeyAuth) SetHash(hash string) {
	if hash == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if string(a.hash) == hash {
		return
	}
	a.hash = []byte(hash)
	a.verified.Clear()
}

// Verify reports whether key matches the configured hash.
func (a *APIKeyAuth) Verify(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	digest := sha256.Sum256([]byte(key))
	if _, ok := a.verified.Load(digest); ok {
		return true
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(key)) != nil {
		return false
	}
	a.verified.Store(digest, struct{}{})
	return true
}

func extractKey(r *http.Request) string {
	if k := r.Header.Get(headerAPIKey); k != "" {
		return k
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}

// HashKey returns the bcrypt hash of key for storage in configuration.
func HashKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
