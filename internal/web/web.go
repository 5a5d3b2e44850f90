// Package web is an in-memory implementation of the story service's REST API. It backs the client's tests
// and the development server; it is not meant to hold real data.
package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultFeedLimit = 25
	MaxFeedLimit     = 100
)

type account struct {
	Username     string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// favorites holds story ids in the order they were marked.
	favorites []string
}

type Handler struct {
	clock      domain.Clock
	bcryptCost int

	mu       sync.RWMutex
	accounts map[string]*account
	tokens   map[string]string
	// stories is kept newest-first.
	stories []domain.Story
}

func New(clock domain.Clock, bcryptCost int) *Handler {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}

	return &Handler{
		clock:      clock,
		bcryptCost: bcryptCost,
		accounts:   map[string]*account{},
		tokens:     map[string]string{},
	}
}

// Router returns a chi router with every route of the API mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Mount(r)
	return r
}

func (h *Handler) story(id string) (domain.Story, bool) {
	i := domain.IndexOf(h.stories, id)
	if i < 0 {
		return domain.Story{}, false
	}
	return h.stories[i], true
}

// userStories returns the stories submitted by username, newest-first.
func (h *Handler) userStories(username string) []domain.Story {
	result := []domain.Story{}
	for _, s := range h.stories {
		if s.Username == username {
			result = append(result, s)
		}
	}
	return result
}

func (h *Handler) favoriteStories(a *account) []domain.Story {
	result := make([]domain.Story, 0, len(a.favorites))
	for _, id := range a.favorites {
		if s, ok := h.story(id); ok {
			result = append(result, s)
		}
	}
	return result
}
