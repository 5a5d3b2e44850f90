package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"codeberg.org/gruf/go-mutexes"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/remote"
)

// User is the authenticated user of a session. Every own story has the user's username, and no story appears
// twice among the favorites.
type User struct {
	remote    remote.Remote
	username  string
	name      string
	createdAt time.Time
	token     string

	// locks serializes toggles of the same story; toggles of different stories run concurrently.
	locks mutexes.MutexMap

	mu        sync.RWMutex
	favorites []domain.Story
	favorite  map[string]struct{}
	// own is kept newest-first.
	own []domain.Story
}

func NewUser(r remote.Remote, record domain.UserRecord, token string) *User {
	u := &User{
		remote:    r,
		username:  record.Username,
		name:      record.Name,
		createdAt: record.CreatedAt,
		token:     token,
		favorite:  make(map[string]struct{}, len(record.Favorites)),
	}

	for _, s := range record.Favorites {
		if _, dup := u.favorite[s.ID]; !dup {
			u.favorite[s.ID] = struct{}{}
			u.favorites = append(u.favorites, s)
		}
	}
	for _, s := range record.OwnStories {
		if s.Username == u.username {
			u.own = append(u.own, s)
		}
	}
	return u
}

func (u *User) Username() string     { return u.username }
func (u *User) Name() string         { return u.name }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) Token() string        { return u.token }

func (u *User) IsFavorite(id string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.favorite[id]
	return ok
}

func (u *User) IsOwn(id string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return domain.IndexOf(u.own, id) >= 0
}

// Favorites returns a copy of the favorites, in the order they were marked.
func (u *User) Favorites() []domain.Story {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return slices.Clone(u.favorites)
}

func (u *User) OwnStories() []domain.Story {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return slices.Clone(u.own)
}

// ToggleFavorite flips the favorite status of story on the server and, once the server confirms, locally.
// It reports whether the story is now a favorite. Toggles of the same story are applied one after the other,
// each one seeing the result of the previous.
func (u *User) ToggleFavorite(ctx context.Context, story domain.Story) (favorited bool, err error) {
	unlock := u.locks.Lock(story.ID)
	defer unlock()

	favorited = !u.IsFavorite(story.ID)
	confirmed, err := u.remote.SetFavorite(ctx, u.token, u.username, story.ID, favorited)
	if err != nil && !(errors.Is(err, remote.ErrNotFound) && !favorited) {
		return !favorited, err
	}
	if err != nil {
		// The story was deleted on the server, which took it out of every favorites list.
		log.Info().Str("id", story.ID).Msg("dropping favorite of a deleted story")
		err = nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if !favorited {
		delete(u.favorite, story.ID)
		u.favorites = domain.Without(u.favorites, story.ID)
		return
	}

	if _, ok := u.favorite[story.ID]; ok {
		return
	}
	if i := domain.IndexOf(confirmed, story.ID); i >= 0 {
		story = confirmed[i]
	} else {
		log.Warn().Str("id", story.ID).Msg("favorite missing from the server's response")
	}
	u.favorite[story.ID] = struct{}{}
	u.favorites = append(slices.Clip(u.favorites), story)
	return
}

// RecordOwnStory puts a story the user just submitted at the front of their own stories. Stories submitted by
// someone else are ignored.
func (u *User) RecordOwnStory(story domain.Story) {
	if story.Username != u.username {
		log.Warn().Str("id", story.ID).Str("submitter", story.Username).Msg("not recording story of another user")
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	own := make([]domain.Story, 0, len(u.own)+1)
	own = append(own, story)
	for _, s := range u.own {
		if s.ID != story.ID {
			own = append(own, s)
		}
	}
	u.own = own
}

// ForgetOwnStory drops a deleted story from the user's stories and favorites. Unknown ids are ignored.
func (u *User) ForgetOwnStory(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.own = domain.Without(u.own, id)
	if _, ok := u.favorite[id]; ok {
		delete(u.favorite, id)
		u.favorites = domain.Without(u.favorites, id)
	}
}
