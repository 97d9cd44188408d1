// Package httpapp exposes the JSON API. Every error body has the shape
// {"error": {"kind": "...", "message": "..."}} so clients can branch on
// the kind without parsing messages.
package httpapp

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/friendlog/friendlog/internal/auth"
	"github.com/friendlog/friendlog/internal/config"
	"github.com/friendlog/friendlog/internal/rate"
	"github.com/friendlog/friendlog/internal/social"
	"github.com/friendlog/friendlog/internal/store"
	"github.com/friendlog/friendlog/internal/token"
)

// Error kinds. The wire contract is the kind string, not the HTTP
// status: clients switch on these.
const (
	KindNoCredential      = "no_credential"
	KindCredentialExpired = "credential_expired"
	KindBadCredential     = "bad_credential"
	KindNotFound          = "not_found"
	KindConflict          = "conflict"
	KindInvalid           = "invalid"
	KindTxAborted         = "tx_aborted"
	KindForbidden         = "forbidden"
	KindRateLimited       = "rate_limited"
	KindInternal          = "internal"
)

type Server struct {
	social  *social.Coordinator
	auth    *auth.Service
	issuer  *token.Issuer
	limiter rate.Limiter
	cfg     config.Config
	log     *logrus.Logger
	router  *mux.Router
}

func NewServer(coord *social.Coordinator, authSvc *auth.Service, issuer *token.Issuer, limiter rate.Limiter, cfg config.Config, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	s := &Server{
		social:  coord,
		auth:    authSvc,
		issuer:  issuer,
		limiter: limiter,
		cfg:     cfg,
		log:     log,
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, KindNotFound, errors.New("no such route"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, KindInvalid, errors.New("method not allowed"))
	})

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/refresh", s.handleRefresh).Methods(http.MethodPost)

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(s.requireAdmin)
	admin.HandleFunc("/reconcile/{id}", s.handleReconcile).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireAuth)

	api.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	api.HandleFunc("/me", s.handleUpdateProfile).Methods(http.MethodPatch)
	api.HandleFunc("/me/password", s.handleChangePassword).Methods(http.MethodPut)
	api.HandleFunc("/me/picture", s.handleUpdatePicture).Methods(http.MethodPut)

	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/posts", s.handleAccountPosts).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/likes", s.handleAccountLikes).Methods(http.MethodGet)

	api.HandleFunc("/friends", s.handleListFriends).Methods(http.MethodGet)
	api.HandleFunc("/friends/requests", s.handleListRequests).Methods(http.MethodGet)
	api.HandleFunc("/friends/requests/{id}", s.handleSendRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/accept/{id}", s.handleAcceptRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/reject/{id}", s.handleRejectRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/{id}", s.handleRemoveFriend).Methods(http.MethodDelete)

	api.HandleFunc("/posts", s.handleCreatePost).Methods(http.MethodPost)
	api.HandleFunc("/posts", s.handleListPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", s.handleGetPost).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", s.handleUpdatePost).Methods(http.MethodPatch)
	api.HandleFunc("/posts/{id}", s.handleDeletePost).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{id}/like", s.handleToggleLike).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}/likes", s.handlePostLikes).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}/comments", s.handleCreateComment).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}/comments", s.handlePostComments).Methods(http.MethodGet)
	api.HandleFunc("/comments", s.handleRecentComments).Methods(http.MethodGet)
	api.HandleFunc("/comments/{id}", s.handleUpdateComment).Methods(http.MethodPatch)
	api.HandleFunc("/comments/{id}", s.handleDeleteComment).Methods(http.MethodDelete)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   clientIP(r),
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func queryInt64(r *http.Request, key string, def int64) int64 {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, map[string]errorBody{"error": {Kind: kind, Message: err.Error()}})
}

// respondErr translates domain errors to a status and kind. Anything
// unrecognized is an internal error and gets logged with its real cause.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, KindInvalid, err)
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, social.ErrNoSuchRequest),
		errors.Is(err, social.ErrNotFriends):
		writeError(w, http.StatusNotFound, KindNotFound, err)
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, KindBadCredential, err)
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, social.ErrAlreadyFriends),
		errors.Is(err, social.ErrAlreadyRequested):
		writeError(w, http.StatusConflict, KindConflict, err)
	case errors.Is(err, social.ErrSelfRelation),
		errors.Is(err, social.ErrEmptyTitle),
		errors.Is(err, social.ErrEmptyBody),
		errors.Is(err, social.ErrEmptyName):
		writeError(w, http.StatusBadRequest, KindInvalid, err)
	case errors.Is(err, social.ErrNotOwner):
		writeError(w, http.StatusForbidden, KindForbidden, err)
	case errors.Is(err, social.ErrTxAborted):
		writeError(w, http.StatusServiceUnavailable, KindTxAborted, err)
	// Contention surfacing outside a retried transaction is still a
	// retryable condition for the client, not a server fault.
	case errors.Is(err, store.ErrBusy):
		writeError(w, http.StatusServiceUnavailable, KindTxAborted, err)
	case errors.Is(err, social.ErrInconsistentPair):
		// Deliberately not hidden behind a generic message: the caller
		// should know the removal half-applied.
		writeError(w, http.StatusInternalServerError, KindInternal, err)
	case errors.Is(err, token.ErrExpired):
		writeError(w, http.StatusUnauthorized, KindCredentialExpired, err)
	// A present-but-unusable credential is 403, not 401: only the
	// no-credential and expired cases invite the client to (re)auth.
	case errors.Is(err, token.ErrMalformed), errors.Is(err, token.ErrInvalid):
		writeError(w, http.StatusForbidden, KindBadCredential, err)
	default:
		s.log.WithError(err).WithField("path", r.URL.Path).Error("internal error")
		writeError(w, http.StatusInternalServerError, KindInternal, errors.New("internal error"))
	}
}

func writeRateLimit(w http.ResponseWriter, retry time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
	writeError(w, http.StatusTooManyRequests, KindRateLimited, errors.New("rate limit exceeded"))
}
