package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/ghostpen/internal/db"
	"github.com/jonathan/ghostpen/internal/ingestion"
	"github.com/jonathan/ghostpen/internal/server/middleware"
	"github.com/jonathan/ghostpen/internal/types"
)

// OwnGenerateRequest is the body of POST /api/me/generate.
type OwnGenerateRequest struct {
	SocialNetwork     string `json:"social_network"`
	Platform          string `json:"platform,omitempty"`
	Topic             string `json:"topic"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

// currentUser returns the authenticated caller or writes 401.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := middleware.UserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	posts, err := s.store.ListPosts(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if posts == nil {
		posts = []types.UserPost{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"posts": posts, "count": len(posts)})
}

// handleCreatePost adds a cleaned post to the caller's corpus. Metadata
// missing from the request is extracted from the content.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	var req types.CreatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	req.Platform = types.Platform(strings.ToLower(strings.TrimSpace(string(req.Platform))))
	if err := req.Validate(); err != nil {
		s.fail(w, r, validationError(err))
		return
	}

	content := ingestion.NormalizeContent(req.Content)
	if content == "" {
		s.fail(w, r, &ErrValidation{Field: "content", Message: "empty after cleanup"})
		return
	}
	post := &types.UserPost{
		UserID:   userID,
		Platform: req.Platform,
		Content:  content,
	}
	if req.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			s.fail(w, r, &ErrValidation{Field: "timestamp", Message: "must be RFC3339"})
			return
		}
		post.Timestamp = ts
	}
	if req.Meta != nil {
		post.Meta = *req.Meta
	} else {
		post.Meta = ingestion.ExtractMeta(content)
	}

	if err := s.store.CreatePost(r.Context(), post); err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	postID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, &ErrValidation{Field: "id", Message: "invalid post id"})
		return
	}
	if err := s.store.DeletePost(r.Context(), userID, postID); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetOwnProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	profile, err := s.store.GetProfile(r.Context(), types.UserAuthorID(userID))
	if errors.Is(err, db.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "profile not built yet")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleBuildOwnProfile rebuilds the caller's profile from their stored posts.
func (s *Server) handleBuildOwnProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	posts, err := s.store.ListPosts(ctx, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	corpus := db.UserCorpus(userID, user.Name, posts)
	if err := s.profiler.Invalidate(ctx, corpus.AuthorID); err != nil {
		s.logger.Warn("profile cache invalidation failed", zap.String("author_id", corpus.AuthorID), zap.Error(err))
	}
	profile, err := s.profiler.Analyze(ctx, corpus)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("profile built",
		zap.String("author_id", profile.AuthorID),
		zap.Int("posts", profile.TotalPosts),
	)
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleGenerateOwn writes a post in the caller's own style.
func (s *Server) handleGenerateOwn(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	var body OwnGenerateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	gen := GenerateRequest{
		AuthorID:          types.UserAuthorID(userID),
		SocialNetwork:     body.SocialNetwork,
		Platform:          body.Platform,
		Topic:             body.Topic,
		AdditionalContext: body.AdditionalContext,
	}
	req, err := gen.toGeneration()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	profile, err := s.store.GetProfile(r.Context(), req.AuthorID)
	if errors.Is(err, db.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "profile not built yet")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.pipeline.GenerateWithProfile(r.Context(), req, profile)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.generateResponse(result, started))
}
