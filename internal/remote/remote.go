// Package remote defines the contract the client core depends on to talk to the story service.
package remote

import (
	"context"

	"github.com/sidereusnuntius/storyfeed/internal/domain"
)

// Remote is the story service as seen by the client. Implementations never touch local state; every method
// is a plain request/response and reports failures using the errors defined in this package.
type Remote interface {
	// FetchFeed returns every story on the feed, in the order the server sent them. It needs no token.
	FetchFeed(ctx context.Context) ([]domain.Story, error)
	// CreateStory submits a new story; the server assigns its id and creation time.
	CreateStory(ctx context.Context, token string, story domain.NewStory) (domain.Story, error)
	DeleteStory(ctx context.Context, token, id string) error
	Signup(ctx context.Context, username, password, name string) (user domain.UserRecord, token string, err error)
	Login(ctx context.Context, username, password string) (user domain.UserRecord, token string, err error)
	// FetchUser is used to restore a session from persisted credentials.
	FetchUser(ctx context.Context, username, token string) (domain.UserRecord, error)
	// SetFavorite marks or unmarks a story as a favorite of the user and returns the user's favorites as the
	// server sees them after the change. Setting a story to the state it already has is not an error.
	SetFavorite(ctx context.Context, token, username, storyID string, favorited bool) ([]domain.Story, error)
}
