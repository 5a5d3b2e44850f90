// Package storage defines where the session's credentials are kept between runs.
package storage

import (
	"context"
	"errors"

	"github.com/sidereusnuntius/storyfeed/internal/domain"
)

var (
	ErrNotDir   = errors.New("given root is not a directory")
	ErrInternal = errors.New("internal error")
	// ErrNotExist is returned by Load when no credentials were saved.
	ErrNotExist = errors.New("no credentials stored")
	ErrInvalid  = errors.New("refusing to store incomplete credentials")
)

// CredentialStore is an opaque persisted store holding at most one set of credentials.
type CredentialStore interface {
	Load(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, creds domain.Credentials) error
	// Clear removes the stored credentials. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
