package web

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
)

type tokenRequest struct {
	Token string `json:"token"`
}

type userResponse struct {
	Message string   `json:"message,omitempty"`
	User    userJSON `json:"user"`
}

func GetUser(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")

		h.mu.RLock()
		defer h.mu.RUnlock()

		caller, err := h.accountFor(r.URL.Query().Get("token"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		a, ok := h.accounts[username]
		if !ok {
			writeError(w, http.StatusNotFound, "no such user: "+username)
			return
		}
		if caller != a {
			writeError(w, http.StatusUnauthorized, "token does not belong to "+username)
			return
		}

		writeJSON(w, http.StatusOK, userResponse{User: h.toUserJSON(a)})
	}
}

// Favorite marks (add) or unmarks the story as a favorite. Both directions are idempotent.
func Favorite(h *Handler, add bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		storyID := chi.URLParam(r, "storyId")

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
		if caller.Username != username {
			writeError(w, http.StatusForbidden, "cannot change the favorites of another user")
			return
		}
		if _, ok := h.story(storyID); !ok {
			writeError(w, http.StatusNotFound, "no such story: "+storyID)
			return
		}

		i := slices.Index(caller.favorites, storyID)
		message := "Favorite Added!"
		switch {
		case add && i < 0:
			caller.favorites = append(caller.favorites, storyID)
		case !add && i >= 0:
			caller.favorites = slices.Delete(caller.favorites, i, i+1)
		}
		if !add {
			message = "Favorite Removed!"
		}

		writeJSON(w, http.StatusOK, userResponse{Message: message, User: h.toUserJSON(caller)})
	}
}
