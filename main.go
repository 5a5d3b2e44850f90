package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog"
	zero "github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/client"
	"github.com/sidereusnuntius/storyfeed/internal/config"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/initialization"
	service "github.com/sidereusnuntius/storyfeed/internal/service/impl"
	"github.com/sidereusnuntius/storyfeed/internal/state"
	"github.com/sidereusnuntius/storyfeed/internal/storage"
	"github.com/sidereusnuntius/storyfeed/internal/storage/filestore"
	"github.com/sidereusnuntius/storyfeed/internal/storage/sqlstore"
)

func main() {
	zero.Logger = zero.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	config, err := config.ReadConfig()
	if err != nil {
		zero.Fatal().Err(err).Msg("invalid configuration")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	store, db, err := openStore(config)
	if err != nil {
		zero.Fatal().Err(err).Str("backend", config.CredentialsBackend).Msg("unable to open the credential store")
	}
	if db != nil {
		defer db.Close()
	}

	remote := client.New(&http.Client{}, config.BaseURL, config.RequestTimeout, config.FeedLimit)
	svc := service.New(state.New(config, remote, store))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	zero.Debug().Str("url", config.BaseURL.String()).Msg("connecting to the story service")
	t := newTerminal(svc, os.Stdin, os.Stdout)
	if err = t.Run(ctx); err != nil {
		zero.Error().Err(err).Msg("terminal closed")
	}
}

// openStore returns the credential store selected by the configuration, and the database backing it, if any.
func openStore(cfg config.Configuration) (storage.CredentialStore, *sql.DB, error) {
	if cfg.CredentialsBackend != config.SqliteBackend {
		store, err := filestore.New(cfg.CredentialsPath)
		return store, nil, err
	}

	if err := os.MkdirAll(cfg.CredentialsPath, 0o700); err != nil {
		return nil, nil, err
	}
	d, err := initialization.OpenDB(filepath.Join(cfg.CredentialsPath, "credentials.db"))
	if err != nil {
		return nil, nil, err
	}
	if err = initialization.SetupDB(d, cfg.MigrationsFolder, "credentials"); err != nil {
		d.Close()
		return nil, nil, err
	}
	zero.Debug().Msg("database connection established")
	return sqlstore.New(d, domain.SystemClock{}), d, nil
}
