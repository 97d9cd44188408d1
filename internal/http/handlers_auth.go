package httpapp

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/friendlog/friendlog/internal/auth"
	"github.com/friendlog/friendlog/internal/model"
)

type signupRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	EmailConfirm string `json:"email_confirm"`
	Password     string `json:"password"`
	Location     string `json:"location"`
	Bio          string `json:"bio"`
}

type sessionResponse struct {
	Account model.Account  `json:"account"`
	Tokens  auth.TokenPair `json:"tokens"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, "auth", s.cfg.RateLimits.AuthPerMinute) {
		return
	}
	var req signupRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindInvalid, err)
		return
	}
	account, err := s.auth.Signup(r.Context(), auth.SignupParams{
		Name:         req.Name,
		Email:        req.Email,
		EmailConfirm: req.EmailConfirm,
		Password:     req.Password,
		Location:     req.Location,
		Bio:          req.Bio,
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	pair, err := s.auth.IssuePair(account.ID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Account: account, Tokens: pair})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, "auth", s.cfg.RateLimits.AuthPerMinute) {
		return
	}
	var req loginRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindInvalid, err)
		return
	}
	account, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	pair, err := s.auth.IssuePair(account.ID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Account: account, Tokens: pair})
}

// handleRefresh exchanges a refresh token for a new pair. The refresh
// token travels the same way access tokens do, as the Authorization
// bearer credential; nothing else authorizes this endpoint.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, "auth", s.cfg.RateLimits.AuthPerMinute) {
		return
	}
	bearer, err := bearerToken(r)
	if errors.Is(err, errMissingCredential) {
		writeError(w, http.StatusUnauthorized, KindNoCredential, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusForbidden, KindBadCredential, err)
		return
	}
	pair, err := s.auth.Refresh(r.Context(), bearer)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	account, err := s.social.Account(r.Context(), accountID(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type profileRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Bio      string `json:"bio"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindInvalid, err)
		return
	}
	account, err := s.social.UpdateProfile(r.Context(), accountID(r), req.Name, req.Location, req.Bio)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, "auth", s.cfg.RateLimits.AuthPerMinute) {
		return
	}
	var req passwordRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindInvalid, err)
		return
	}
	if err := s.auth.ChangePassword(r.Context(), accountID(r), req.CurrentPassword, req.NewPassword); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pictureRequest struct {
	Picture string `json:"picture"`
}

func (s *Server) handleUpdatePicture(w http.ResponseWriter, r *http.Request) {
	var req pictureRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindInvalid, err)
		return
	}
	account, err := s.social.UpdatePicture(r.Context(), accountID(r), req.Picture)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.social.ListAccounts(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.social.Account(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}
