package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyHeader is accepted as an alternative to "Authorization: Bearer" for
// embedded FAQ widgets that cannot set the Authorization header.
const APIKeyHeader = "X-API-Key"

// exemptPaths bypass authentication so probes and scrapers need no key.
var exemptPaths = map[string]struct{}{
	"/health":       {},
	"/health/live":  {},
	"/health/ready": {},
	"/metrics":      {},
}

// APIKeyAuthMiddleware rejects requests without a configured key. Keys are
// compared as SHA-256 digests in constant time. With no non-empty key
// configured, authentication is disabled.
func APIKeyAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	var digests [][sha256.Size]byte
	for _, k := range apiKeys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(digests) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, msg := presentedKey(r)
			if msg == "" && !knownKey(digests, token) {
				msg = "invalid api key"
			}
			if msg != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="faqdex"`)
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// presentedKey extracts the key from X-API-Key or a Bearer Authorization
// header. A non-empty msg explains why no key could be read.
func presentedKey(r *http.Request) (token, msg string) {
	if k := r.Header.Get(APIKeyHeader); k != "" {
		return k, ""
	}

	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", "authorization header must use Bearer scheme"
	}
	return token, ""
}

func knownKey(digests [][sha256.Size]byte, token string) bool {
	d := sha256.Sum256([]byte(token))
	found := 0
	for i := range digests {
		found |= subtle.ConstantTimeCompare(d[:], digests[i][:])
	}
	return found == 1
}
