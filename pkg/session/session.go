// Package session is the client-side mirror of the server session: it
// persists the issued token, derives the authentication state from it
// and guards every authenticated call against a dead session.
package session

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrSessionExpired is the uniform failure surfaced for every dead
// session, whether judged locally or reported by the server as 401.
var ErrSessionExpired = errors.New("session expired, please log in again")

type State int

const (
	Anonymous State = iota
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return "anonymous"
	}
}

// TokenStore is the durable client storage behind the session.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a single file, the CLI equivalent
// of the browser's localStorage.
type FileTokenStore struct {
	Path string
}

func (f *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

func (f *FileTokenStore) Save(token string) error {
	return os.WriteFile(f.Path, []byte(token), 0o600)
}

func (f *FileTokenStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// UserInfo holds the display fields returned by login.
type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Session struct {
	store TokenStore
	token string
	user  UserInfo
}

// Restore loads whatever token the store holds. An expired stored
// token is kept; State reports it as Expired until the next guarded
// call forces a logout.
func Restore(store TokenStore) (*Session, error) {
	token, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Session{store: store, token: token}, nil
}

func (s *Session) Token() string  { return s.token }
func (s *Session) User() UserInfo { return s.user }

// State derives the session state lazily on each access; there is no
// background timer watching the expiry.
func (s *Session) State() State {
	if s.token == "" {
		return Anonymous
	}
	if s.locallyExpired() {
		return Expired
	}
	return Authenticated
}

// locallyExpired decodes the token without verifying the signature.
// This judgment is advisory only, a UI-responsiveness shortcut; the
// server's verification is the sole source of truth.
func (s *Session) locallyExpired() bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}

// Begin persists the token of a fresh login.
func (s *Session) Begin(token string, user UserInfo) error {
	if err := s.store.Save(token); err != nil {
		return err
	}
	s.token = token
	s.user = user
	return nil
}

// End drops the session, on explicit logout and on any authorization
// failure from a guarded call.
func (s *Session) End() error {
	s.token = ""
	s.user = UserInfo{}
	return s.store.Clear()
}
