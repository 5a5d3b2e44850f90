package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/remote"
	"github.com/sidereusnuntius/storyfeed/internal/validate"
)

func (s *AppService) Login(ctx context.Context, username, password string) (err error) {
	defer func() { s.publish(err) }()

	username = strings.TrimSpace(username)
	if err = validate.LoginForm(username, password); err != nil {
		return fmt.Errorf("%w: %w", remote.ErrValidation, err)
	}

	user, err := s.Session.Login(ctx, username, password)
	if err != nil {
		return
	}
	log.Info().Str("username", user.Username()).Msg("logged in")
	return
}

func (s *AppService) Signup(ctx context.Context, username, password, name string) (err error) {
	defer func() { s.publish(err) }()

	username = strings.TrimSpace(username)
	name = RemoveDuplicateSpaces(name)
	if err = validate.SignUpForm(username, password, name); err != nil {
		return fmt.Errorf("%w: %w", remote.ErrValidation, err)
	}

	user, err := s.Session.Signup(ctx, username, password, name)
	if err != nil {
		return
	}
	log.Info().Str("username", user.Username()).Msg("signed up")
	return
}

func (s *AppService) Logout(ctx context.Context) {
	s.Session.Logout(ctx)
	s.publish(nil)
}
