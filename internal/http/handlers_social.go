package httpapp

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/friendlog/friendlog/internal/model"
)

func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := s.social.Friends(r.Context(), accountID(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"friends": friends})
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.social.PendingRequests(r.Context(), accountID(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (s *Server) handleSendRequest(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, "social", s.cfg.RateLimits.SocialPerMinute) {
		return
	}
	if err := s.social.SendRequest(r.Context(), accountID(r), mux.Vars(r)["id"]); err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "pending"})
}

// handleAcceptRequest accepts the pending request sent by {id} to the
// caller.
func (s *Server) handleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, "social", s.cfg.RateLimits.SocialPerMinute) {
		return
	}
	if err := s.social.Accept(r.Context(), mux.Vars(r)["id"], accountID(r)); err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "friends"})
}

func (s *Server) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, "social", s.cfg.RateLimits.SocialPerMinute) {
		return
	}
	if err := s.social.Reject(r.Context(), mux.Vars(r)["id"], accountID(r)); err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, "social", s.cfg.RateLimits.SocialPerMinute) {
		return
	}
	if err := s.social.Remove(r.Context(), accountID(r), mux.Vars(r)["id"]); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAccountPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.social.ListPostsByAccount(r.Context(), mux.Vars(r)["id"], queryInt(r, "limit", 25))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (s *Server) handleAccountLikes(w http.ResponseWriter, r *http.Request) {
	likes, err := s.social.LikesByAccount(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if likes == nil {
		likes = []model.Like{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"likes": likes})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := s.social.Reconcile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
