package state

import (
	"github.com/sidereusnuntius/storyfeed/internal/config"
	"github.com/sidereusnuntius/storyfeed/internal/remote"
	"github.com/sidereusnuntius/storyfeed/internal/session"
	"github.com/sidereusnuntius/storyfeed/internal/storage"
	"github.com/sidereusnuntius/storyfeed/internal/stories"
)

// State is everything the application keeps in memory. There is one per running client.
type State struct {
	Config  config.Configuration
	Remote  remote.Remote
	Stories *stories.Collection
	Session *session.Manager
}

func New(cfg config.Configuration, r remote.Remote, store storage.CredentialStore) State {
	return State{
		Config:  cfg,
		Remote:  r,
		Stories: stories.New(r),
		Session: session.NewManager(r, store),
	}
}
