// Package stories keeps the local copy of the feed in sync with the story service.
package stories

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/remote"
)

// Collection is the feed, newest-first, with no two stories sharing an id. Local changes are applied only
// after the server confirms them; a failed call leaves the collection as it was.
type Collection struct {
	remote remote.Remote

	mu      sync.RWMutex
	stories []domain.Story
}

func New(r remote.Remote) *Collection {
	return &Collection{remote: r}
}

// Load replaces the contents of the collection with the feed, in the order the server sent it.
func (c *Collection) Load(ctx context.Context) error {
	feed, err := c.remote.FetchFeed(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(feed))
	loaded := make([]domain.Story, 0, len(feed))
	for _, s := range feed {
		if _, dup := seen[s.ID]; dup {
			log.Warn().Str("id", s.ID).Msg("duplicate story in feed")
			continue
		}
		seen[s.ID] = struct{}{}
		loaded = append(loaded, s)
	}

	c.mu.Lock()
	c.stories = loaded
	c.mu.Unlock()
	return nil
}

// Add submits a story and puts the server's record at the front of the collection. Every hook in also is
// called with the new story while the collection is still locked, so observers see both changes at once.
func (c *Collection) Add(ctx context.Context, token string, fields domain.NewStory, also ...func(domain.Story)) (domain.Story, error) {
	s, err := c.remote.CreateStory(ctx, token, fields)
	if err != nil {
		return domain.Story{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stories := make([]domain.Story, 0, len(c.stories)+1)
	stories = append(stories, s)
	for _, existing := range c.stories {
		if existing.ID != s.ID {
			stories = append(stories, existing)
		}
	}
	c.stories = stories

	for _, f := range also {
		f(s)
	}
	return s, nil
}

// Remove deletes the story on the server, then drops it from the collection. A story that is not in the
// collection is not an error. Hooks run as in Add.
func (c *Collection) Remove(ctx context.Context, token, id string, also ...func(string)) error {
	if err := c.remote.DeleteStory(ctx, token, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if domain.IndexOf(c.stories, id) >= 0 {
		c.stories = domain.Without(c.stories, id)
	}
	for _, f := range also {
		f(id)
	}
	return nil
}

func (c *Collection) Find(id string) (domain.Story, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := domain.IndexOf(c.stories, id)
	if i < 0 {
		return domain.Story{}, false
	}
	return c.stories[i], true
}

// Stories returns a copy of the collection.
func (c *Collection) Stories() []domain.Story {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.stories)
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stories)
}

// View calls f with the contents of the collection while holding the lock that Add and Remove take, so
// anything f reads alongside the stories is consistent with them. f must not keep the slice nor modify it.
func (c *Collection) View(f func([]domain.Story)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f(c.stories)
}
