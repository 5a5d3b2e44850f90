package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sidereusnuntius/storyfeed/internal/config"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/mocks"
	"github.com/sidereusnuntius/storyfeed/internal/remote"
	"github.com/sidereusnuntius/storyfeed/internal/service"
	"github.com/sidereusnuntius/storyfeed/internal/session"
	"github.com/sidereusnuntius/storyfeed/internal/state"
	"go.uber.org/mock/gomock"
)

var ctx = context.Background()

var saved = domain.Credentials{Username: "ada", Token: "t1"}

func story(id, username string) domain.Story {
	return domain.Story{
		ID:        id,
		Title:     "story " + id,
		Author:    "author",
		URL:       "https://example.com/" + id,
		Username:  username,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func ids(stories []service.StoryView) []string {
	result := []string{}
	for _, s := range stories {
		result = append(result, s.ID)
	}
	return result
}

type fixture struct {
	svc    *AppService
	remote *mocks.MockRemote
	store  *mocks.MockCredentialStore
	snaps  []service.Snapshot
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		remote: mocks.NewMockRemote(ctrl),
		store:  mocks.NewMockCredentialStore(ctrl),
	}
	f.svc = New(state.New(config.Configuration{}, f.remote, f.store))
	f.svc.Subscribe(func(s service.Snapshot) { f.snaps = append(f.snaps, s) })
	return f
}

func (f *fixture) last(t *testing.T) service.Snapshot {
	t.Helper()
	if len(f.snaps) == 0 {
		t.Fatal("no snapshot was published")
	}
	return f.snaps[len(f.snaps)-1]
}

// started returns a fixture whose session was restored as ada and whose feed holds stories 2 and 1, story 1
// being ada's and story 2 her favorite.
func started(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.store.EXPECT().Load(gomock.Any()).Return(saved, nil)
	f.remote.EXPECT().FetchUser(gomock.Any(), "ada", "t1").Return(domain.UserRecord{
		Username:   "ada",
		Name:       "Ada",
		Favorites:  []domain.Story{story("2", "brian")},
		OwnStories: []domain.Story{story("1", "ada")},
	}, nil)
	f.remote.EXPECT().FetchFeed(gomock.Any()).Return([]domain.Story{story("2", "brian"), story("1", "ada")}, nil)

	if err := f.svc.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestStart(t *testing.T) {
	f := started(t)
	snap := f.last(t)

	if snap.State != session.Authenticated || snap.User == nil || snap.User.Username != "ada" {
		t.Fatalf("expected ada to be logged in, got %s %+v", snap.State, snap.User)
	}
	want := []service.StoryView{
		{Story: story("2", "brian"), Favorite: true},
		{Story: story("1", "ada"), Own: true},
	}
	if diff := cmp.Diff(want, snap.Stories); diff != "" {
		t.Errorf("unexpected stories (-want +got):\n%s", diff)
	}
	if snap.Err != nil {
		t.Errorf("unexpected error %v", snap.Err)
	}
}

func TestStartWithExpiredToken(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Load(gomock.Any()).Return(saved, nil)
	f.remote.EXPECT().FetchUser(gomock.Any(), "ada", "t1").Return(domain.UserRecord{}, remote.ErrAuth)
	f.store.EXPECT().Clear(gomock.Any()).Return(nil)
	f.remote.EXPECT().FetchFeed(gomock.Any()).Return([]domain.Story{story("1", "ada")}, nil)

	if err := f.svc.Start(ctx); err != nil {
		t.Fatalf("restore failure surfaced: %v", err)
	}

	snap := f.last(t)
	if snap.State != session.Anonymous || snap.User != nil || snap.Err != nil {
		t.Errorf("expected a clean anonymous snapshot, got %+v", snap)
	}
	if len(snap.Stories) != 1 {
		t.Errorf("feed was not loaded: %+v", snap.Stories)
	}
}

func TestSubmitStory(t *testing.T) {
	f := started(t)
	created := story("9", "ada")
	f.remote.EXPECT().CreateStory(gomock.Any(), "t1", domain.NewStory{
		Title:  "New story",
		Author: "Ada L",
		URL:    "https://example.com/9",
	}).Return(created, nil)

	got, err := f.svc.SubmitStory(ctx, domain.NewStory{Title: " New   story ", Author: "Ada L", URL: " https://example.com/9 "})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "9" {
		t.Errorf("expected story 9, got %+v", got)
	}

	snap := f.last(t)
	if diff := cmp.Diff([]string{"9", "2", "1"}, ids(snap.Stories)); diff != "" {
		t.Errorf("unexpected feed (-want +got):\n%s", diff)
	}
	if !snap.Stories[0].Own {
		t.Error("new story is not marked as own")
	}
	if snap.User.OwnStories[0].ID != "9" {
		t.Errorf("expected 9 in front of own stories, got %+v", snap.User.OwnStories)
	}
}

func TestRejectedIntentsDoNotCallServer(t *testing.T) {
	anonymous := newFixture(t)
	logged := started(t)

	cases := []struct {
		name string
		call func() error
		kind error
	}{
		{
			name: "submit while anonymous",
			call: func() error {
				_, err := anonymous.svc.SubmitStory(ctx, domain.NewStory{Title: "t", Author: "a", URL: "https://x.example"})
				return err
			},
			kind: remote.ErrAuth,
		},
		{
			name: "favorite while anonymous",
			call: func() error { _, err := anonymous.svc.ToggleFavorite(ctx, "1"); return err },
			kind: remote.ErrAuth,
		},
		{
			name: "delete while anonymous",
			call: func() error { return anonymous.svc.DeleteStory(ctx, "1") },
			kind: remote.ErrAuth,
		},
		{
			name: "invalid story",
			call: func() error {
				_, err := logged.svc.SubmitStory(ctx, domain.NewStory{Title: "", Author: "a", URL: "not a url"})
				return err
			},
			kind: remote.ErrValidation,
		},
		{
			name: "unknown story",
			call: func() error { _, err := logged.svc.ToggleFavorite(ctx, "404"); return err },
			kind: remote.ErrNotFound,
		},
		{
			name: "delete unknown story",
			call: func() error { return logged.svc.DeleteStory(ctx, "404") },
			kind: remote.ErrNotFound,
		},
		{
			name: "empty password",
			call: func() error { return anonymous.svc.Login(ctx, "ada", "") },
			kind: remote.ErrValidation,
		},
		{
			name: "short password",
			call: func() error { return anonymous.svc.Signup(ctx, "ada", "short", "Ada") },
			kind: remote.ErrValidation,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.call()
			if remote.Kind(err) != c.kind {
				t.Errorf("expected %v, got %v", c.kind, err)
			}
		})
	}

	if snap := anonymous.last(t); !errors.Is(snap.Err, remote.ErrValidation) {
		t.Errorf("the last error was not published: %v", snap.Err)
	}
}

func TestFailedDeleteLeavesStateUntouched(t *testing.T) {
	f := started(t)
	before := f.svc.Snapshot()
	f.remote.EXPECT().DeleteStory(gomock.Any(), "t1", "1").Return(remote.ErrNetwork)

	err := f.svc.DeleteStory(ctx, "1")
	if !errors.Is(err, remote.ErrNetwork) {
		t.Fatalf("expected a network error, got %v", err)
	}

	after := f.last(t)
	if !errors.Is(after.Err, remote.ErrNetwork) {
		t.Errorf("expected the error in the snapshot, got %v", after.Err)
	}
	after.Err = nil
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("state changed after a failure (-before +after):\n%s", diff)
	}
}

func TestDeleteStory(t *testing.T) {
	f := started(t)
	f.remote.EXPECT().DeleteStory(gomock.Any(), "t1", "1").Return(nil)

	if err := f.svc.DeleteStory(ctx, "1"); err != nil {
		t.Fatal(err)
	}

	snap := f.last(t)
	if diff := cmp.Diff([]string{"2"}, ids(snap.Stories)); diff != "" {
		t.Errorf("unexpected feed (-want +got):\n%s", diff)
	}
	if len(snap.User.OwnStories) != 0 {
		t.Errorf("deleted story still among own stories: %+v", snap.User.OwnStories)
	}
}

func TestToggleFavorite(t *testing.T) {
	f := started(t)
	gomock.InOrder(
		f.remote.EXPECT().SetFavorite(gomock.Any(), "t1", "ada", "2", false).Return([]domain.Story{}, nil),
		f.remote.EXPECT().SetFavorite(gomock.Any(), "t1", "ada", "1", true).Return([]domain.Story{story("1", "ada")}, nil),
	)

	if favorited, err := f.svc.ToggleFavorite(ctx, "2"); err != nil || favorited {
		t.Fatalf("expected story 2 to be unfavorited, got %v, %v", favorited, err)
	}
	if favorited, err := f.svc.ToggleFavorite(ctx, "1"); err != nil || !favorited {
		t.Fatalf("expected story 1 to be favorited, got %v, %v", favorited, err)
	}

	snap := f.last(t)
	if snap.Stories[0].Favorite || !snap.Stories[1].Favorite {
		t.Errorf("unexpected favorite flags: %+v", snap.Stories)
	}
	if len(snap.User.Favorites) != 1 || snap.User.Favorites[0].ID != "1" {
		t.Errorf("unexpected favorites: %+v", snap.User.Favorites)
	}
}

func TestLoginAndLogout(t *testing.T) {
	f := newFixture(t)
	f.remote.EXPECT().Login(gomock.Any(), "ada", "password1").Return(domain.UserRecord{Username: "ada"}, "t1", nil)
	f.store.EXPECT().Save(gomock.Any(), saved).Return(nil)
	f.store.EXPECT().Clear(gomock.Any()).Return(nil)

	if err := f.svc.Login(ctx, "  ada ", "password1"); err != nil {
		t.Fatal(err)
	}
	if snap := f.last(t); snap.State != session.Authenticated {
		t.Errorf("expected %s, got %s", session.Authenticated, snap.State)
	}

	f.svc.Logout(ctx)
	if snap := f.last(t); snap.State != session.Anonymous || snap.User != nil {
		t.Errorf("expected an anonymous snapshot, got %+v", snap)
	}
}

func TestRefreshFeed(t *testing.T) {
	f := started(t)
	f.remote.EXPECT().FetchFeed(gomock.Any()).Return([]domain.Story{story("3", "brian"), story("2", "brian")}, nil)
	f.remote.EXPECT().FetchFeed(gomock.Any()).Return(nil, remote.ErrTimeout)

	summary, err := f.svc.RefreshFeed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Added) != 1 || summary.Added[0].ID != "3" || len(summary.Removed) != 1 || summary.Removed[0].ID != "1" {
		t.Errorf("unexpected summary %+v", summary)
	}

	if _, err = f.svc.RefreshFeed(ctx); !errors.Is(err, remote.ErrTimeout) {
		t.Errorf("expected a timeout, got %v", err)
	}
	if diff := cmp.Diff([]string{"3", "2"}, ids(f.last(t).Stories)); diff != "" {
		t.Errorf("failed refresh changed the feed (-want +got):\n%s", diff)
	}
}

func TestUnsubscribe(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Clear(gomock.Any()).Return(nil).Times(2)
	calls := 0
	unsubscribe := f.svc.Subscribe(func(service.Snapshot) { calls++ })

	f.svc.Logout(ctx)
	unsubscribe()
	f.svc.Logout(ctx)

	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestLogoutDuringStart(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Load(gomock.Any()).Return(saved, nil)
	f.remote.EXPECT().FetchUser(gomock.Any(), "ada", "t1").
		DoAndReturn(func(context.Context, string, string) (domain.UserRecord, error) {
			f.svc.Logout(ctx)
			return domain.UserRecord{Username: "ada"}, nil
		})
	f.store.EXPECT().Clear(gomock.Any()).Return(nil)
	f.remote.EXPECT().FetchFeed(gomock.Any()).Return([]domain.Story{story("1", "ada")}, nil)

	if err := f.svc.Start(ctx); err != nil {
		t.Fatal(err)
	}

	snap := f.last(t)
	if snap.State != session.Anonymous || snap.User != nil {
		t.Errorf("logout was undone by the restore: %+v", snap)
	}
	if len(snap.Stories) != 1 {
		t.Errorf("feed was not loaded: %+v", snap.Stories)
	}
}
