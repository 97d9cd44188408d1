package httpapp

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/friendlog/friendlog/internal/model"
	"github.com/friendlog/friendlog/internal/store"
)

type postRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Image string `json:"image"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, "post", s.cfg.RateLimits.PostPerMinute) {
		return
	}
	var req postRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindInvalid, err)
		return
	}
	post, err := s.social.CreatePost(r.Context(), accountID(r), req.Title, req.Body, req.Image)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.social.ListPosts(r.Context(), store.PostListOpts{
		Limit:    queryInt(r, "limit", 25),
		Cursor:   queryInt64(r, "cursor", 0),
		CursorID: r.URL.Query().Get("cursor_id"),
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	var next int64
	var nextID string
	if len(posts) > 0 {
		last := posts[len(posts)-1]
		next = last.CreatedAt.Unix()
		nextID = last.ID
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "next_cursor": next, "next_cursor_id": nextID})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.social.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindInvalid, err)
		return
	}
	post, err := s.social.UpdatePost(r.Context(), accountID(r), mux.Vars(r)["id"], req.Title, req.Body, req.Image)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.social.DeletePost(r.Context(), accountID(r), mux.Vars(r)["id"]); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, "social", s.cfg.RateLimits.SocialPerMinute) {
		return
	}
	liked, count, err := s.social.ToggleLike(r.Context(), accountID(r), mux.Vars(r)["id"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "likes": count})
}

func (s *Server) handlePostLikes(w http.ResponseWriter, r *http.Request) {
	likes, err := s.social.LikesByPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if likes == nil {
		likes = []model.Like{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"likes": likes})
}

type commentRequest struct {
	Body string `json:"body"`
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, "comment", s.cfg.RateLimits.CommentPerMinute) {
		return
	}
	var req commentRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindInvalid, err)
		return
	}
	comment, err := s.social.CreateComment(r.Context(), accountID(r), mux.Vars(r)["id"], req.Body)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handlePostComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.social.CommentsByPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (s *Server) handleRecentComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.social.RecentComments(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindInvalid, err)
		return
	}
	comment, err := s.social.UpdateComment(r.Context(), accountID(r), mux.Vars(r)["id"], req.Body)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := s.social.DeleteComment(r.Context(), accountID(r), mux.Vars(r)["id"]); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
