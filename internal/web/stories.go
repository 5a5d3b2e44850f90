package web

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/validate"
)

type postStoryRequest struct {
	Token string `json:"token"`
	Story struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		URL    string `json:"url"`
	} `json:"story"`
}

type storyResponse struct {
	Message string    `json:"message,omitempty"`
	Story   storyJSON `json:"story"`
}

func ListStories(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, err := intParam(r, "skip", 0)
		if err != nil || skip < 0 {
			writeError(w, http.StatusBadRequest, "skip must be a non-negative integer")
			return
		}
		limit, err := intParam(r, "limit", DefaultFeedLimit)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(limit, MaxFeedLimit)

		h.mu.RLock()
		defer h.mu.RUnlock()

		page := []domain.Story{}
		if skip < len(h.stories) {
			page = h.stories[skip:min(skip+limit, len(h.stories))]
		}
		writeJSON(w, http.StatusOK, map[string][]storyJSON{"stories": toStoriesJSON(page)})
	}
}

func GetStory(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "storyId")

		h.mu.RLock()
		defer h.mu.RUnlock()

		s, ok := h.story(id)
		if !ok {
			writeError(w, http.StatusNotFound, "no such story: "+id)
			return
		}
		writeJSON(w, http.StatusOK, storyResponse{Story: toStoryJSON(s)})
	}
}

func PostStory(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postStoryRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		fields := domain.NewStory{
			Title:  strings.TrimSpace(req.Story.Title),
			Author: strings.TrimSpace(req.Story.Author),
			URL:    strings.TrimSpace(req.Story.URL),
		}

		h.mu.Lock()
		defer h.mu.Unlock()

		caller, err := h.accountFor(req.Token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if err = validate.Story(fields); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		now := h.clock.Now()
		s := domain.Story{
			ID:        uuid.NewString(),
			Title:     fields.Title,
			Author:    fields.Author,
			URL:       fields.URL,
			Username:  caller.Username,
			CreatedAt: now,
			UpdatedAt: now,
		}
		h.stories = slices.Insert(h.stories, 0, s)

		log.Info().Str("id", s.ID).Str("username", s.Username).Msg("story created")
		writeJSON(w, http.StatusCreated, storyResponse{Story: toStoryJSON(s)})
	}
}

func DeleteStory(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "storyId")

		var req tokenRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		h.mu.Lock()
		defer h.mu.Unlock()

		caller, err := h.accountFor(req.Token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		s, ok := h.story(id)
		if !ok {
			writeError(w, http.StatusNotFound, "no such story: "+id)
			return
		}
		if s.Username != caller.Username {
			writeError(w, http.StatusForbidden, "only the submitter can delete a story")
			return
		}

		h.stories = domain.Without(h.stories, id)
		for _, a := range h.accounts {
			a.favorites = slices.DeleteFunc(a.favorites, func(f string) bool { return f == id })
		}

		log.Info().Str("id", id).Str("username", caller.Username).Msg("story deleted")
		writeJSON(w, http.StatusOK, storyResponse{Message: "Deleted story!", Story: toStoryJSON(s)})
	}
}

func intParam(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
