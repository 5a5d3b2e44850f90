package core

import (
	"slices"

	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/service"
)

// Snapshot is built while the feed is locked. Submissions and deletions update the feed and the user under
// the same lock, so a snapshot never shows one without the other.
func (s *AppService) Snapshot() (snap service.Snapshot) {
	s.mu.Lock()
	snap.Err = s.lastErr
	s.mu.Unlock()

	s.Stories.View(func(stories []domain.Story) {
		snap.State = s.Session.State()
		user := s.Session.Current()

		snap.Stories = make([]service.StoryView, len(stories))
		for i, story := range stories {
			snap.Stories[i] = service.StoryView{Story: story}
			if user != nil {
				snap.Stories[i].Favorite = user.IsFavorite(story.ID)
				snap.Stories[i].Own = user.IsOwn(story.ID)
			}
		}

		if user != nil {
			snap.User = &service.UserView{
				Username:   user.Username(),
				Name:       user.Name(),
				CreatedAt:  user.CreatedAt(),
				Favorites:  user.Favorites(),
				OwnStories: user.OwnStories(),
			}
		}
	})
	return
}

func (s *AppService) Subscribe(f func(service.Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = f

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// publish records the outcome of an intent and hands a fresh snapshot to every subscriber. Subscribers are
// called from the goroutine that raised the intent.
func (s *AppService) publish(err error) {
	s.mu.Lock()
	s.lastErr = err
	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	subscribers := make([]func(service.Snapshot), len(ids))
	for i, id := range ids {
		subscribers[i] = s.subscribers[id]
	}
	s.mu.Unlock()

	if len(subscribers) == 0 {
		return
	}
	snap := s.Snapshot()
	snap.Err = err
	for _, f := range subscribers {
		f(snap)
	}
}
