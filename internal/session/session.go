// Package session manages the signed-in user's bearer credentials: explicit
// init on sign-in, teardown on sign-out, and a file-backed token store so
// sessions survive process restarts. The session is injected into
// collaborators that need credentials; nothing reads it ambiently.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// ErrSignedOut is returned when credentials are requested and no valid
// session exists (never signed in, signed out, or token expired).
var ErrSignedOut = errors.New("not signed in")

const sessionFileName = "session.json"

// User is the signed-in identity as reported by the auth service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// state is the persisted session file payload.
type state struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Session holds the current credentials.
type Session struct {
	mu    sync.Mutex
	path  string
	token string
	user  User
	now   func() time.Time
}

// Path returns the default session file path under the config directory.
func Path(configDir string) string {
	return filepath.Join(configDir, sessionFileName)
}

// Load reads a session from disk. A missing file yields an empty
// (signed-out) session, not an error.
func Load(path string) (*Session, error) {
	s := &Session{path: path, now: time.Now}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("invalid session file %s: %w", path, err)
	}

	s.token = st.Token
	s.user = st.User
	return s, nil
}

// loginRequest / loginResponse are the auth-service login wire shapes.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SignIn authenticates against the auth service and initializes the
// session, persisting it to disk.
func (s *Session) SignIn(ctx context.Context, authURL, email, password string) error {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("encoding login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL+"/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("invalid credentials")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if lr.Token == "" {
		return fmt.Errorf("auth service returned an empty token")
	}

	s.mu.Lock()
	s.token = lr.Token
	s.user = lr.User
	s.mu.Unlock()

	log.Info().Str("email", lr.User.Email).Msg("signed in")
	return s.save()
}

// SignOut tears the session down and removes the session file.
func (s *Session) SignOut() error {
	s.mu.Lock()
	s.token = ""
	s.user = User{}
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// Token returns the bearer token, or ErrSignedOut when the session is
// empty or the token has expired.
func (s *Session) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return "", ErrSignedOut
	}
	if expired(s.token, s.now()) {
		return "", fmt.Errorf("session expired: %w", ErrSignedOut)
	}
	return s.token, nil
}

// CurrentUser returns the signed-in identity, or nil.
func (s *Session) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return nil
	}
	u := s.user
	return &u
}

// expired reads the exp claim without verifying the signature; the client
// holds no signing key and only needs to know whether a round trip is
// worth attempting. Tokens without a parseable exp claim are treated as
// live and left to the server to reject.
func expired(token string, now time.Time) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}

// save writes the session file with owner-only permissions.
func (s *Session) save() error {
	s.mu.Lock()
	st := state{Token: s.token, User: s.user}
	path := s.path
	s.mu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create session directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
