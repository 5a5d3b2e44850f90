package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/conversions"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/remote"
)

const maxBodySize = 8 << 20

var _ remote.Remote = (*HttpClient)(nil)

// HttpClient binds remote.Remote to the story service's REST API. The credential travels in the request body
// (or in the query string for GETs), never in a header.
type HttpClient struct {
	client    *http.Client
	base      string
	timeout   time.Duration
	feedLimit int
}

// New returns a client for the service at base. Every call is abandoned after timeout, if it is positive;
// feedLimit, if positive, is sent as the limit parameter when fetching the feed.
func New(client *http.Client, base *url.URL, timeout time.Duration, feedLimit int) *HttpClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HttpClient{
		client:    client,
		base:      strings.TrimRight(base.String(), "/"),
		timeout:   timeout,
		feedLimit: feedLimit,
	}
}

type tokenBody struct {
	Token string `json:"token"`
}

type storyBody struct {
	Token string     `json:"token"`
	Story storyInput `json:"story"`
}

type storyInput struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
}

type userBody struct {
	User userInput `json:"user"`
}

type userInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (c *HttpClient) FetchFeed(ctx context.Context) ([]domain.Story, error) {
	var query url.Values
	if c.feedLimit > 0 {
		query = url.Values{"limit": {strconv.Itoa(c.feedLimit)}}
	}

	body, err := c.do(ctx, http.MethodGet, query, nil, "stories")
	if err != nil {
		return nil, err
	}

	stories, err := conversions.FeedFromBody(body)
	if err != nil {
		return nil, malformed(err)
	}
	return stories, nil
}

func (c *HttpClient) CreateStory(ctx context.Context, token string, story domain.NewStory) (domain.Story, error) {
	if token == "" {
		return domain.Story{}, errNoToken
	}

	body, err := c.do(ctx, http.MethodPost, nil, storyBody{
		Token: token,
		Story: storyInput{Title: story.Title, Author: story.Author, URL: story.URL},
	}, "stories")
	if err != nil {
		return domain.Story{}, err
	}

	created, err := conversions.StoryFromBody(body)
	if err != nil {
		return domain.Story{}, malformed(err)
	}
	return created, nil
}

func (c *HttpClient) DeleteStory(ctx context.Context, token, id string) error {
	if token == "" {
		return errNoToken
	}

	_, err := c.do(ctx, http.MethodDelete, nil, tokenBody{token}, "stories", id)
	return err
}

func (c *HttpClient) Signup(ctx context.Context, username, password, name string) (domain.UserRecord, string, error) {
	body, err := c.do(ctx, http.MethodPost, nil, userBody{userInput{username, password, name}}, "signup")
	if err != nil {
		return domain.UserRecord{}, "", err
	}
	return authenticated(body)
}

func (c *HttpClient) Login(ctx context.Context, username, password string) (domain.UserRecord, string, error) {
	body, err := c.do(ctx, http.MethodPost, nil, userBody{userInput{Username: username, Password: password}}, "login")
	if err != nil {
		return domain.UserRecord{}, "", err
	}
	return authenticated(body)
}

func (c *HttpClient) FetchUser(ctx context.Context, username, token string) (domain.UserRecord, error) {
	if token == "" {
		return domain.UserRecord{}, errNoToken
	}

	body, err := c.do(ctx, http.MethodGet, url.Values{"token": {token}}, nil, "users", username)
	if err != nil {
		return domain.UserRecord{}, err
	}

	u, err := conversions.UserFromBody(body)
	if err != nil {
		return domain.UserRecord{}, malformed(err)
	}
	return u, nil
}

func (c *HttpClient) SetFavorite(ctx context.Context, token, username, storyID string, favorited bool) ([]domain.Story, error) {
	if token == "" {
		return nil, errNoToken
	}

	method := http.MethodDelete
	if favorited {
		method = http.MethodPost
	}

	body, err := c.do(ctx, method, nil, tokenBody{token}, "users", username, "favorites", storyID)
	if err != nil {
		return nil, err
	}

	favorites, err := conversions.FavoritesFromBody(body)
	if err != nil {
		return nil, malformed(err)
	}
	return favorites, nil
}

var errNoToken = fmt.Errorf("%w: no token", remote.ErrAuth)

func authenticated(body []byte) (domain.UserRecord, string, error) {
	u, token, err := conversions.AuthFromBody(body)
	if err != nil {
		return domain.UserRecord{}, "", malformed(err)
	}
	return u, token, nil
}

func malformed(err error) error {
	log.Error().Err(err).Msg("malformed response")
	return fmt.Errorf("%w: %w", remote.ErrService, err)
}

// do performs a request against the path made of segments, each escaped on its own, and returns the body of a
// successful response. Failures are translated into the errors of the remote package.
func (c *HttpClient) do(ctx context.Context, method string, query url.Values, payload any, segments ...string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	path := "/" + strings.Join(segments, "/")
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", remote.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, transportError(ctx, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, transportError(ctx, err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", res.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		err = statusError(res.StatusCode, body)
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request rejected")
		return nil, err
	}
	return body, nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", remote.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", remote.ErrNetwork, err)
}

func statusError(code int, body []byte) error {
	msg := conversions.ErrorMessage(body)
	if msg == "" {
		msg = http.StatusText(code)
	}

	var kind error
	switch code {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		kind = remote.ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = remote.ErrAuth
	case http.StatusNotFound:
		kind = remote.ErrNotFound
	default:
		kind = remote.ErrService
	}
	return fmt.Errorf("%w: %d %s", kind, code, msg)
}
