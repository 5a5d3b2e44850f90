// Package sqlstore keeps the credentials in a single-row SQLite table.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/storage"
)

var _ storage.CredentialStore = (*SqlStore)(nil)

type SqlStore struct {
	db    *sql.DB
	clock domain.Clock
}

// New returns a store backed by db, whose schema must already be migrated.
func New(db *sql.DB, clock domain.Clock) *SqlStore {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &SqlStore{db: db, clock: clock}
}

func (s *SqlStore) Load(ctx context.Context) (creds domain.Credentials, err error) {
	row := s.db.QueryRowContext(ctx, "SELECT username, token FROM credentials WHERE id = 1")
	err = row.Scan(&creds.Username, &creds.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Credentials{}, storage.ErrNotExist
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to load credentials")
		return domain.Credentials{}, storage.ErrInternal
	}
	return
}

func (s *SqlStore) Save(ctx context.Context, creds domain.Credentials) error {
	if creds.Empty() {
		return storage.ErrInvalid
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO credentials (id, username, token, saved_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, token = excluded.token, saved_at = excluded.saved_at`,
		creds.Username, creds.Token, s.clock.Now().Unix())
	if err != nil {
		log.Error().Err(err).Msg("failed to save credentials")
		return storage.ErrInternal
	}
	return nil
}

func (s *SqlStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM credentials"); err != nil {
		log.Error().Err(err).Msg("failed to clear credentials")
		return storage.ErrInternal
	}
	return nil
}
