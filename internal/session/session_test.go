package session

import (
	"context"
	"errors"
	"testing"

	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/mocks"
	"github.com/sidereusnuntius/storyfeed/internal/remote"
	"github.com/sidereusnuntius/storyfeed/internal/storage"
	"go.uber.org/mock/gomock"
)

func newManager(t *testing.T) (*Manager, *mocks.MockRemote, *mocks.MockCredentialStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRemote(ctrl)
	store := mocks.NewMockCredentialStore(ctrl)
	return NewManager(r, store), r, store
}

func record(username string) domain.UserRecord {
	return domain.UserRecord{Username: username, Name: username + " test"}
}

func TestConsecutiveLogins(t *testing.T) {
	m, r, store := newManager(t)

	r.EXPECT().Login(gomock.Any(), "ada", "pw-ada").Return(record("ada"), "t1", nil)
	r.EXPECT().Login(gomock.Any(), "brian", "pw-brian").Return(record("brian"), "t2", nil)
	store.EXPECT().Save(gomock.Any(), domain.Credentials{Username: "ada", Token: "t1"}).Return(nil)
	store.EXPECT().Save(gomock.Any(), domain.Credentials{Username: "brian", Token: "t2"}).Return(nil)

	first, err := m.Login(ctx, "ada", "pw-ada")
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Login(ctx, "brian", "pw-brian")
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Error("expected a new user for the second login")
	}
	current := m.Current()
	if current != second || current.Username() != "brian" || current.Token() != "t2" {
		t.Errorf("expected brian to be the active user, got %+v", current)
	}
	if m.State() != Authenticated {
		t.Errorf("expected %s, got %s", Authenticated, m.State())
	}
}

func TestFailedLoginRestoresPriorState(t *testing.T) {
	m, r, store := newManager(t)

	r.EXPECT().Login(gomock.Any(), "ada", "wrong").Return(domain.UserRecord{}, "", remote.ErrAuth).Times(2)
	r.EXPECT().Signup(gomock.Any(), "ada", "password1", "Ada").Return(record("ada"), "t1", nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	if _, err := m.Login(ctx, "ada", "wrong"); !errors.Is(err, remote.ErrAuth) {
		t.Errorf("expected %v, got %v", remote.ErrAuth, err)
	}
	if m.State() != Anonymous || m.Current() != nil {
		t.Errorf("expected an anonymous session, got %s", m.State())
	}

	user, err := m.Signup(ctx, "ada", "password1", "Ada")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Login(ctx, "ada", "wrong"); !errors.Is(err, remote.ErrAuth) {
		t.Errorf("expected %v, got %v", remote.ErrAuth, err)
	}
	if m.State() != Authenticated || m.Current() != user {
		t.Errorf("a failed login ended the previous session: %s", m.State())
	}
}

func TestConcurrentLoginIsRejected(t *testing.T) {
	m, r, store := newManager(t)

	started := make(chan struct{})
	release := make(chan struct{})
	r.EXPECT().Login(gomock.Any(), "ada", "password1").
		DoAndReturn(func(context.Context, string, string) (domain.UserRecord, string, error) {
			close(started)
			<-release
			return record("ada"), "t1", nil
		})
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	done := make(chan error)
	go func() {
		_, err := m.Login(ctx, "ada", "password1")
		done <- err
	}()

	<-started
	if m.State() != Authenticating {
		t.Errorf("expected %s, got %s", Authenticating, m.State())
	}
	if _, err := m.Login(ctx, "brian", "password1"); !errors.Is(err, ErrBusy) {
		t.Errorf("expected %v, got %v", ErrBusy, err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if m.Current().Username() != "ada" {
		t.Errorf("expected ada, got %s", m.Current().Username())
	}
}

func TestSaveFailureDoesNotFailLogin(t *testing.T) {
	m, r, store := newManager(t)

	r.EXPECT().Login(gomock.Any(), "ada", "password1").Return(record("ada"), "t1", nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(storage.ErrInternal)

	if _, err := m.Login(ctx, "ada", "password1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if m.State() != Authenticated {
		t.Errorf("expected %s, got %s", Authenticated, m.State())
	}
}

func TestRestore(t *testing.T) {
	saved := domain.Credentials{Username: "ada", Token: "t1"}

	cases := []struct {
		name     string
		load     error
		fetch    error
		cleared  bool
		restored bool
	}{
		{name: "valid token", restored: true},
		{name: "nothing saved", load: storage.ErrNotExist},
		{name: "unreadable store", load: storage.ErrInternal},
		{name: "expired token", fetch: remote.ErrAuth, cleared: true},
		{name: "deleted user", fetch: remote.ErrNotFound, cleared: true},
		{name: "server unreachable", fetch: remote.ErrNetwork},
		{name: "timeout", fetch: remote.ErrTimeout},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, r, store := newManager(t)

			store.EXPECT().Load(gomock.Any()).Return(saved, c.load)
			if c.load == nil {
				r.EXPECT().FetchUser(gomock.Any(), "ada", "t1").Return(record("ada"), c.fetch)
			}
			if c.cleared {
				store.EXPECT().Clear(gomock.Any()).Return(nil)
			}

			if got := m.Restore(ctx); got != c.restored {
				t.Errorf("expected Restore to return %v, got %v", c.restored, got)
			}

			want := Anonymous
			if c.restored {
				want = Authenticated
			}
			if m.State() != want {
				t.Errorf("expected %s, got %s", want, m.State())
			}
			if c.restored && m.Current().Token() != "t1" {
				t.Errorf("restored user has token %q", m.Current().Token())
			}
		})
	}
}

func TestLogout(t *testing.T) {
	m, r, store := newManager(t)

	r.EXPECT().Login(gomock.Any(), "ada", "password1").Return(record("ada"), "t1", nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	store.EXPECT().Clear(gomock.Any()).Return(nil)

	if _, err := m.Login(ctx, "ada", "password1"); err != nil {
		t.Fatal(err)
	}
	m.Logout(ctx)

	if m.State() != Anonymous || m.Current() != nil {
		t.Errorf("expected an anonymous session after logout, got %s", m.State())
	}
}

func TestWithoutStore(t *testing.T) {
	r := mocks.NewMockRemote(gomock.NewController(t))
	m := NewManager(r, nil)

	r.EXPECT().Login(gomock.Any(), "ada", "password1").Return(record("ada"), "t1", nil)

	if m.Restore(ctx) {
		t.Error("restored a session without a store")
	}
	if _, err := m.Login(ctx, "ada", "password1"); err != nil {
		t.Fatal(err)
	}
	m.Logout(ctx)
}

func TestLogoutCancelsPendingLogin(t *testing.T) {
	m, r, store := newManager(t)

	started := make(chan struct{})
	release := make(chan struct{})
	r.EXPECT().Login(gomock.Any(), "ada", "password1").
		DoAndReturn(func(context.Context, string, string) (domain.UserRecord, string, error) {
			close(started)
			<-release
			return record("ada"), "t1", nil
		})
	r.EXPECT().Login(gomock.Any(), "brian", "password2").Return(record("brian"), "t2", nil)
	gomock.InOrder(
		store.EXPECT().Clear(gomock.Any()).Return(nil),
		store.EXPECT().Save(gomock.Any(), domain.Credentials{Username: "brian", Token: "t2"}).Return(nil),
	)

	done := make(chan error)
	go func() {
		_, err := m.Login(ctx, "ada", "password1")
		done <- err
	}()

	<-started
	m.Logout(ctx)
	if m.State() != Anonymous {
		t.Errorf("expected %s after logout, got %s", Anonymous, m.State())
	}
	if _, err := m.Login(ctx, "brian", "password2"); err != nil {
		t.Fatal(err)
	}

	close(release)
	if err := <-done; !errors.Is(err, ErrCancelled) {
		t.Errorf("expected %v, got %v", ErrCancelled, err)
	}
	if m.State() != Authenticated || m.Current().Username() != "brian" {
		t.Errorf("expected brian to stay logged in, got %s %+v", m.State(), m.Current())
	}
}

func TestLogoutCancelsPendingRestore(t *testing.T) {
	m, r, store := newManager(t)

	started := make(chan struct{})
	release := make(chan struct{})
	store.EXPECT().Load(gomock.Any()).Return(domain.Credentials{Username: "ada", Token: "expired"}, nil)
	r.EXPECT().FetchUser(gomock.Any(), "ada", "expired").
		DoAndReturn(func(context.Context, string, string) (domain.UserRecord, error) {
			close(started)
			<-release
			return domain.UserRecord{}, remote.ErrAuth
		})
	r.EXPECT().Login(gomock.Any(), "brian", "password2").Return(record("brian"), "t2", nil)
	gomock.InOrder(
		store.EXPECT().Clear(gomock.Any()).Return(nil),
		store.EXPECT().Save(gomock.Any(), domain.Credentials{Username: "brian", Token: "t2"}).Return(nil),
	)

	done := make(chan bool)
	go func() { done <- m.Restore(ctx) }()

	<-started
	m.Logout(ctx)
	if _, err := m.Login(ctx, "brian", "password2"); err != nil {
		t.Fatal(err)
	}

	close(release)
	if <-done {
		t.Error("a cancelled restore reported success")
	}
	if m.State() != Authenticated || m.Current().Username() != "brian" {
		t.Errorf("expected brian to stay logged in, got %s %+v", m.State(), m.Current())
	}
}
