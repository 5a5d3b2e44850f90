package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	FileBackend   = "file"
	SqliteBackend = "sqlite"
)

const DefaultBaseURL = "https://hack-or-snooze-v3.herokuapp.com"

type Configuration struct {
	// BaseURL is the root of the story service's API.
	BaseURL *url.URL
	// RequestTimeout bounds every call to the story service. Zero disables the limit.
	RequestTimeout time.Duration
	// FeedLimit is how many stories are requested when loading the feed; zero leaves it to the server.
	FeedLimit int
	Debug     bool
	// CredentialsBackend selects where the session is saved between runs, either FileBackend or SqliteBackend.
	CredentialsBackend string
	// CredentialsPath is the directory holding the saved session, whatever the backend.
	CredentialsPath  string
	MigrationsFolder string
	DevServerAddr    string
}

// ReadConfig loads the configuration from storyfeed.yaml, searched in the working directory and then in
// $HOME/.config/storyfeed, and from STORYFEED_ environment variables, which take precedence. A missing file
// is not an error.
func ReadConfig() (Configuration, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigName("storyfeed")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "storyfeed"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Configuration{}, fmt.Errorf("reading config: %w", err)
		}
	}
	return FromViper(v)
}

func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix("storyfeed")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	credentials := "storyfeed"
	if home, err := os.UserHomeDir(); err == nil {
		credentials = filepath.Join(home, ".config", "storyfeed")
	}

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("feed_limit", 0)
	v.SetDefault("debug", false)
	v.SetDefault("credentials.backend", FileBackend)
	v.SetDefault("credentials.path", credentials)
	v.SetDefault("credentials.migrations", "migrations")
	v.SetDefault("devserver.addr", ":8080")
}

// FromViper validates the settings held by v and builds a Configuration from them.
func FromViper(v *viper.Viper) (cfg Configuration, err error) {
	cfg = Configuration{
		RequestTimeout:     v.GetDuration("request_timeout"),
		FeedLimit:          v.GetInt("feed_limit"),
		Debug:              v.GetBool("debug"),
		CredentialsBackend: strings.ToLower(v.GetString("credentials.backend")),
		CredentialsPath:    v.GetString("credentials.path"),
		MigrationsFolder:   v.GetString("credentials.migrations"),
		DevServerAddr:      v.GetString("devserver.addr"),
	}

	cfg.BaseURL, err = url.Parse(v.GetString("base_url"))
	if err != nil {
		return cfg, fmt.Errorf("invalid base_url: %w", err)
	}
	if cfg.BaseURL.Scheme != "http" && cfg.BaseURL.Scheme != "https" || cfg.BaseURL.Host == "" {
		return cfg, fmt.Errorf("invalid base_url %q: an http or https URL is required", cfg.BaseURL)
	}

	switch {
	case cfg.RequestTimeout < 0:
		err = fmt.Errorf("request_timeout must not be negative")
	case cfg.FeedLimit < 0:
		err = fmt.Errorf("feed_limit must not be negative")
	case cfg.CredentialsBackend != FileBackend && cfg.CredentialsBackend != SqliteBackend:
		err = fmt.Errorf("unknown credentials.backend %q", cfg.CredentialsBackend)
	}
	return
}
