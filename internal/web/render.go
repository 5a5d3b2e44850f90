package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
)

type storyJSON struct {
	StoryID   string `json:"storyId"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	URL       string `json:"url"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type userJSON struct {
	Username  string      `json:"username"`
	Name      string      `json:"name"`
	CreatedAt string      `json:"createdAt"`
	UpdatedAt string      `json:"updatedAt"`
	Favorites []storyJSON `json:"favorites"`
	Stories   []storyJSON `json:"stories"`
}

type errorJSON struct {
	Status  int    `json:"status"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func toStoryJSON(s domain.Story) storyJSON {
	return storyJSON{
		StoryID:   s.ID,
		Title:     s.Title,
		Author:    s.Author,
		URL:       s.URL,
		Username:  s.Username,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toStoriesJSON(stories []domain.Story) []storyJSON {
	result := make([]storyJSON, len(stories))
	for i, s := range stories {
		result[i] = toStoryJSON(s)
	}
	return result
}

// toUserJSON must be called with h.mu held.
func (h *Handler) toUserJSON(a *account) userJSON {
	return userJSON{
		Username:  a.Username,
		Name:      a.Name,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: a.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Favorites: toStoriesJSON(h.favoriteStories(a)),
		Stories:   toStoriesJSON(h.userStories(a.Username)),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]errorJSON{
		"error": {Status: status, Title: http.StatusText(status), Message: message},
	})
}

// LoggingMiddleware logs every request at debug level. Query strings are left out since they may carry tokens.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("served")
	})
}
