// Package session tracks who is logged in and keeps the logged-in user's favorites and stories in sync with
// the story service.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/remote"
	"github.com/sidereusnuntius/storyfeed/internal/storage"
)

var (
	// ErrBusy is returned when a login or signup is attempted while another one is in progress.
	ErrBusy = errors.New("authentication already in progress")
	// ErrCancelled is returned by an authentication attempt overtaken by a logout; its result is discarded.
	ErrCancelled = errors.New("authentication cancelled by logout")
)

type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Manager holds the single active User. While an authentication attempt is in flight, Current keeps returning
// the user of the previous session, if any; a successful attempt replaces it at once.
type Manager struct {
	remote remote.Remote
	store  storage.CredentialStore

	mu      sync.RWMutex
	state   State
	current *User
	// generation changes on every logout and every authentication attempt. An attempt commits only if it is
	// still the latest thing to have happened to the session.
	generation uint64

	// persist orders writes to the store, so a Clear by Logout always lands after the Save of the session it ends.
	persist sync.Mutex
}

// NewManager returns an anonymous manager. A nil store disables persistence.
func NewManager(r remote.Remote, store storage.CredentialStore) *Manager {
	return &Manager{remote: r, store: store}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns the active user, or nil if the session is anonymous.
func (m *Manager) Current() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) Login(ctx context.Context, username, password string) (*User, error) {
	return m.begin(ctx, func() (domain.UserRecord, string, error) {
		return m.remote.Login(ctx, username, password)
	}, false)
}

func (m *Manager) Signup(ctx context.Context, username, password, name string) (*User, error) {
	return m.begin(ctx, func() (domain.UserRecord, string, error) {
		return m.remote.Signup(ctx, username, password, name)
	}, false)
}

// Restore tries to resume the session saved by a previous login. It never fails loudly: on any error the
// session is left as it was and false is returned. Credentials the server rejects are forgotten, while those
// that could not be checked, because of a network failure for instance, are kept for the next run.
func (m *Manager) Restore(ctx context.Context) bool {
	if m.store == nil {
		return false
	}

	creds, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			log.Warn().Err(err).Msg("could not read saved credentials")
		}
		return false
	}

	_, err = m.begin(ctx, func() (domain.UserRecord, string, error) {
		record, err := m.remote.FetchUser(ctx, creds.Username, creds.Token)
		return record, creds.Token, err
	}, true)
	if err != nil {
		log.Info().Err(err).Str("username", creds.Username).Msg("could not restore session")
		return false
	}

	log.Info().Str("username", creds.Username).Msg("session restored")
	return true
}

// Logout ends the session and forgets the saved credentials. The server is not contacted.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.generation++
	m.current = nil
	m.state = Anonymous
	m.mu.Unlock()

	if m.store == nil {
		return
	}

	m.persist.Lock()
	defer m.persist.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("failed to clear saved credentials")
	}
}

// begin runs f as an authentication attempt and, if it succeeds, makes its user the active one. On failure
// the state goes back to whatever the current user warrants. An attempt overtaken by Logout, and by any
// attempt started after it, leaves the session and the store alone and returns ErrCancelled.
//
// A new session is saved to the store, unless it was restored from it; a restored session whose credentials
// the server rejects is cleared from it.
func (m *Manager) begin(ctx context.Context, f func() (domain.UserRecord, string, error), restoring bool) (*User, error) {
	m.mu.Lock()
	if m.state == Authenticating {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	m.generation++
	attempt := m.generation
	m.state = Authenticating
	m.mu.Unlock()

	record, token, err := f()

	m.persist.Lock()
	defer m.persist.Unlock()

	m.mu.Lock()
	if m.generation != attempt {
		m.mu.Unlock()
		log.Info().Err(err).Msg("discarding authentication cancelled by logout")
		return nil, ErrCancelled
	}

	if err != nil {
		m.state = Anonymous
		if m.current != nil {
			m.state = Authenticated
		}
		m.mu.Unlock()

		rejected := errors.Is(err, remote.ErrAuth) || errors.Is(err, remote.ErrNotFound)
		if restoring && rejected {
			if clearErr := m.store.Clear(ctx); clearErr != nil {
				log.Error().Err(clearErr).Msg("failed to clear rejected credentials")
			}
		}
		return nil, err
	}

	user := NewUser(m.remote, record, token)
	m.current = user
	m.state = Authenticated
	m.mu.Unlock()

	if !restoring && m.store != nil {
		creds := domain.Credentials{Username: user.Username(), Token: token}
		if err = m.store.Save(ctx, creds); err != nil {
			log.Error().Err(err).Msg("failed to save credentials")
		}
	}
	return user, nil
}
