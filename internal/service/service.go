package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sidereusnuntius/storyfeed/internal/diff"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/remote"
	"github.com/sidereusnuntius/storyfeed/internal/session"
)

var (
	ErrLoginRequired = fmt.Errorf("%w: you must be logged in", remote.ErrAuth)
	ErrUnknownStory  = fmt.Errorf("%w: unknown story", remote.ErrNotFound)
)

// StoryView is a story of the feed as the current user sees it.
type StoryView struct {
	domain.Story
	Favorite bool
	Own      bool
}

type UserView struct {
	Username   string
	Name       string
	CreatedAt  time.Time
	Favorites  []domain.Story
	OwnStories []domain.Story
}

// Snapshot holds everything needed to render the application. Snapshots are copies: later changes do not
// affect them.
type Snapshot struct {
	Stories []StoryView
	State   session.State
	// User is nil when nobody is logged in.
	User *UserView
	// Err is the error of the last intent, or nil if it succeeded.
	Err error
}

// Service takes the intents of the user interface. After each intent, successful or not, a new Snapshot is
// published to the subscribers.
type Service interface {
	// Start resumes the saved session, if there is one, and loads the feed. Failing to resume the session is
	// not an error.
	Start(ctx context.Context) error
	RefreshFeed(ctx context.Context) (diff.Summary, error)
	SubmitStory(ctx context.Context, fields domain.NewStory) (domain.Story, error)
	DeleteStory(ctx context.Context, id string) error
	// ToggleFavorite reports whether the story is a favorite after the call.
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	Login(ctx context.Context, username, password string) error
	Signup(ctx context.Context, username, password, name string) error
	Logout(ctx context.Context)
	Snapshot() Snapshot
	// Subscribe registers f to be called with every published snapshot, until the returned function is called.
	Subscribe(f func(Snapshot)) (unsubscribe func())
}
