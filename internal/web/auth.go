package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/utils"
	"github.com/sidereusnuntius/storyfeed/internal/validate"
	"golang.org/x/crypto/bcrypt"
)

const maxRequestBody = 1 << 20

var errNoToken = errors.New("a token is required")

type credentialsRequest struct {
	User struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
	} `json:"user"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userJSON `json:"user"`
}

func decode(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// accountFor returns the account owning token. It must be called with h.mu held.
func (h *Handler) accountFor(token string) (*account, error) {
	if token == "" {
		return nil, errNoToken
	}
	username, ok := h.tokens[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return h.accounts[username], nil
}

func (h *Handler) issueToken(username string) (string, error) {
	token, err := utils.NewToken()
	if err != nil {
		return "", err
	}
	h.tokens[token] = username
	return token, nil
}

func SignUp(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		u := req.User
		u.Username = strings.TrimSpace(u.Username)
		u.Name = strings.TrimSpace(u.Name)
		if err := validate.SignUpForm(u.Username, u.Password, u.Name); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), h.bcryptCost)
		if err != nil {
			log.Error().Err(err).Msg("failed to hash password")
			writeError(w, http.StatusInternalServerError, "could not create user")
			return
		}

		h.mu.Lock()
		defer h.mu.Unlock()

		if _, exists := h.accounts[u.Username]; exists {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}

		now := h.clock.Now()
		a := &account{
			Username:     u.Username,
			Name:         u.Name,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		token, err := h.issueToken(a.Username)
		if err != nil {
			log.Error().Err(err).Msg("failed to generate token")
			writeError(w, http.StatusInternalServerError, "could not create user")
			return
		}
		h.accounts[a.Username] = a

		log.Info().Str("username", a.Username).Msg("user signed up")
		writeJSON(w, http.StatusCreated, authResponse{Token: token, User: h.toUserJSON(a)})
	}
}

func Login(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		username := strings.TrimSpace(req.User.Username)
		if err := validate.LoginForm(username, req.User.Password); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.mu.RLock()
		a, ok := h.accounts[username]
		h.mu.RUnlock()
		if !ok || bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(req.User.Password)) != nil {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}

		h.mu.Lock()
		defer h.mu.Unlock()

		token, err := h.issueToken(a.Username)
		if err != nil {
			log.Error().Err(err).Msg("failed to generate token")
			writeError(w, http.StatusInternalServerError, "could not log in")
			return
		}
		writeJSON(w, http.StatusOK, authResponse{Token: token, User: h.toUserJSON(a)})
	}
}
