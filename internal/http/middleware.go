package httpapp

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/friendlog/friendlog/internal/token"
)

type contextKey string

const accountIDKey contextKey = "account_id"

// accountID returns the authenticated caller's account id. It is only
// valid inside handlers behind requireAuth.
func accountID(r *http.Request) string {
	id, _ := r.Context().Value(accountIDKey).(string)
	return id
}

var (
	errMissingCredential = errors.New("missing Authorization header")
	errNotBearer         = errors.New("Authorization header is not a bearer token")
)

// bearerToken extracts the credential from the Authorization header.
// The header is the only credential channel: cookies and query
// parameters are never consulted.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingCredential
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errNotBearer
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), nil
}

// requireAuth admits requests carrying a valid access token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer, err := bearerToken(r)
		if errors.Is(err, errMissingCredential) {
			writeError(w, http.StatusUnauthorized, KindNoCredential, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusForbidden, KindBadCredential, err)
			return
		}
		id, err := s.issuer.Verify(bearer, token.ClassAccess)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), accountIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin gates the operational endpoints behind the shared admin
// secret. This is deployment plumbing, not user auth.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := r.Header.Get("X-Admin-Secret")
		if subtle.ConstantTimeCompare([]byte(secret), []byte(s.cfg.AdminSecret)) != 1 {
			writeError(w, http.StatusForbidden, KindForbidden, errors.New("bad admin secret"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allowRate applies a per-caller fixed-window limit. Authenticated
// callers are keyed by account, anonymous ones by client IP.
func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, action string, limit int) bool {
	key := action + ":" + accountID(r)
	if accountID(r) == "" {
		key = action + ":" + clientIP(r)
	}
	if ok, retry := s.limiter.Allow(key, limit, time.Minute); !ok {
		writeRateLimit(w, retry)
		return false
	}
	return true
}
