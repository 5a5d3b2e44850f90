// Command devserver serves an in-memory story service, for trying the client without the public instance.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	zero "github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/config"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/web"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	zero.Logger = zero.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	config, err := config.ReadConfig()
	if err != nil {
		zero.Fatal().Err(err).Msg("invalid configuration")
	}
	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	handler := web.New(domain.SystemClock{}, bcrypt.DefaultCost)
	s := &http.Server{
		Addr:              config.DevServerAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(shutdown)
	}()

	zero.Info().Str("addr", config.DevServerAddr).Msg("started server")
	if err = s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zero.Fatal().Err(err).Send()
	}
}
