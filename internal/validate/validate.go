package validate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sidereusnuntius/storyfeed/internal/domain"
)

const (
	MinPasswordLen = 8
	MaxPasswordLen = 72
	MaxUsernameLen = 64
	MaxNameLen     = 100
	MaxTitleLen    = 200
	MaxAuthorLen   = 100
)

func SignUpForm(username, password, name string) error {
	return errors.Join(
		Username(username),
		Password(password),
		Name(name),
	)
}

// LoginForm only checks presence; the server decides whether the credentials are right.
func LoginForm(username, password string) error {
	var errs []error
	if username == "" {
		errs = append(errs, errors.New("empty username"))
	}
	if password == "" {
		errs = append(errs, errors.New("empty password"))
	}
	return errors.Join(errs...)
}

func Story(s domain.NewStory) error {
	var errs []error

	switch l := utf8.RuneCountInString(strings.TrimSpace(s.Title)); {
	case l == 0:
		errs = append(errs, errors.New("empty title"))
	case l > MaxTitleLen:
		errs = append(errs, fmt.Errorf("title too long; max %d characters", MaxTitleLen))
	}

	switch l := utf8.RuneCountInString(strings.TrimSpace(s.Author)); {
	case l == 0:
		errs = append(errs, errors.New("empty author"))
	case l > MaxAuthorLen:
		errs = append(errs, fmt.Errorf("author too long; max %d characters", MaxAuthorLen))
	}

	errs = append(errs, URL(s.URL))
	return errors.Join(errs...)
}

func URL(raw string) error {
	if raw == "" {
		return errors.New("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url has no host")
	}
	return nil
}

func Password(password string) error {
	l := len(password)
	switch {
	case l == 0:
		return errors.New("empty password")
	case l < MinPasswordLen:
		return fmt.Errorf("password too short; min %d characters", MinPasswordLen)
	case l > MaxPasswordLen:
		return fmt.Errorf("password too long; max %d characters", MaxPasswordLen)
	}
	return nil
}

func Name(name string) error {
	if l := utf8.RuneCountInString(strings.TrimSpace(name)); l == 0 {
		return errors.New("empty name")
	} else if l > MaxNameLen {
		return fmt.Errorf("name too long; max %d characters", MaxNameLen)
	}
	return nil
}

func Username(username string) error {
	if l := len(username); l == 0 {
		return errors.New("empty username")
	} else if l > MaxUsernameLen {
		return fmt.Errorf("username too long; max %d characters", MaxUsernameLen)
	}
	if strings.ContainsAny(username, "/?#% ") {
		return errors.New("username contains forbidden characters")
	}
	return nil
}
