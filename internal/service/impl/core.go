package core

import (
	"sync"

	"github.com/sidereusnuntius/storyfeed/internal/service"
	"github.com/sidereusnuntius/storyfeed/internal/session"
	"github.com/sidereusnuntius/storyfeed/internal/state"
	"github.com/sidereusnuntius/storyfeed/internal/stories"
)

type AppService struct {
	Stories *stories.Collection
	Session *session.Manager

	mu          sync.Mutex
	lastErr     error
	nextID      int
	subscribers map[int]func(service.Snapshot)
}

func New(state state.State) *AppService {
	return &AppService{
		Stories:     state.Stories,
		Session:     state.Session,
		subscribers: map[int]func(service.Snapshot){},
	}
}

var _ service.Service = (*AppService)(nil)
