package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Mount(r chi.Router) {
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware)

	r.Post("/signup", SignUp(h))
	r.Post("/login", Login(h))

	r.Route("/stories", func(r chi.Router) {
		r.Get("/", ListStories(h))
		r.Post("/", PostStory(h))
		r.Get("/{storyId}", GetStory(h))
		r.Delete("/{storyId}", DeleteStory(h))
	})

	r.Route("/users/{username}", func(r chi.Router) {
		r.Get("/", GetUser(h))
		r.Post("/favorites/{storyId}", Favorite(h, true))
		r.Delete("/favorites/{storyId}", Favorite(h, false))
	})
}
