package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/storage"
)

// Filename is the name of the file, under the store's root, holding the credentials.
const Filename = "credentials.json"

var _ storage.CredentialStore = (*FileStore)(nil)

type FileStore struct {
	Root string
}

// New returns a store keeping its file under root, which is created if it does not exist.
func New(root string) (store *FileStore, err error) {
	store = &FileStore{
		Root: root,
	}

	info, err := os.Stat(root)
	if err == nil {
		if !info.IsDir() {
			log.Error().Str("root", root).Msg("not a directory")
			err = storage.ErrNotDir
		}
		return
	}

	if errors.Is(err, os.ErrNotExist) {
		err = os.MkdirAll(root, 0o700)
	}

	if err != nil {
		log.Error().Err(err).Msg("internal error when setting up storage")
		err = storage.ErrInternal
	}

	return
}

func (s *FileStore) path() string {
	return filepath.Join(s.Root, Filename)
}

func (s *FileStore) Load(ctx context.Context) (creds domain.Credentials, err error) {
	content, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = storage.ErrNotExist
		} else {
			log.Error().Err(err).Msg("failed to read credentials file " + s.path())
			err = storage.ErrInternal
		}
		return
	}

	if err = json.Unmarshal(content, &creds); err != nil || creds.Empty() {
		log.Warn().Err(err).Msg("ignoring unreadable credentials file " + s.path())
		return domain.Credentials{}, storage.ErrNotExist
	}
	return
}

// Save replaces the credentials file. The new content is written to a temporary file first, so an
// interrupted save never leaves a truncated file behind.
func (s *FileStore) Save(ctx context.Context, creds domain.Credentials) error {
	if creds.Empty() {
		return storage.ErrInvalid
	}

	content, err := json.Marshal(creds)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Root, Filename+".*")
	if err != nil {
		log.Error().Err(err).Msg("failed to create temporary credentials file")
		return storage.ErrInternal
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(content)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), s.path())
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to write credentials file")
		return storage.ErrInternal
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error().Err(err).Msg("credentials deletion error")
		return storage.ErrInternal
	}
	return nil
}
