// Package session holds the signed-in user's token and profile, persisted
// write-through to local storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk-go/internal/localstore"
	"github.com/clinicdesk/clinicdesk-go/internal/model"
)

// Storage keys. Both are cleared together on logout.
const (
	TokenKey = "token"
	UserKey  = "user"
)

var ErrNoExpiry = errors.New("token carries no expiry")

// Authenticator performs the login and registration calls.
type Authenticator interface {
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error)
}

// Session is a snapshot of the authentication state. User is set only when
// Token is; a token may exist without a user if the stored profile was lost.
type Session struct {
	Token string
	User  *model.UserProfile
}

// Authenticated reports whether a token is held.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Store is the single source of truth for the session. It is safe for
// concurrent use.
type Store struct {
	auth    Authenticator
	storage localstore.Store
	logger  zerolog.Logger

	initOnce sync.Once
	initErr  error

	mu        sync.RWMutex
	current   Session
	listeners map[int]func(Session)
	nextID    int
}

// New creates an empty Store. Call Initialize to load persisted state.
func New(auth Authenticator, storage localstore.Store, logger zerolog.Logger) *Store {
	return &Store{
		auth:      auth,
		storage:   storage,
		logger:    logger.With().Str("component", "session").Logger(),
		listeners: make(map[int]func(Session)),
	}
}

// Initialize loads the persisted token and user. It runs once; later calls
// return the first call's result. A stored user that cannot be parsed is
// treated as absent.
func (s *Store) Initialize(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.load(ctx)
	})
	return s.initErr
}

func (s *Store) load(ctx context.Context) error {
	token, _, err := s.storage.Get(ctx, TokenKey)
	if err != nil {
		return fmt.Errorf("loading session token: %w", err)
	}

	var user *model.UserProfile
	if token != "" {
		raw, ok, err := s.storage.Get(ctx, UserKey)
		if err != nil {
			return fmt.Errorf("loading session user: %w", err)
		}
		if ok {
			var p model.UserProfile
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				s.logger.Warn().Err(err).Msg("ignoring unreadable stored user")
			} else {
				user = &p
			}
		}
	}

	s.publish(Session{Token: token, User: user})
	return nil
}

// Login signs in with email and password. On failure the session is left
// unchanged and the error is returned.
func (s *Store) Login(ctx context.Context, email, password string) error {
	resp, err := s.auth.Login(ctx, model.LoginRequest{Email: email, Password: password})
	if err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("login failed")
		return fmt.Errorf("login: %w", err)
	}

	user := resp.User
	if user == nil {
		user = &model.UserProfile{Email: email}
	}
	return s.set(ctx, resp.Token, user)
}

// Register creates an account and signs it in. Confirming the password is
// the caller's job.
func (s *Store) Register(ctx context.Context, req model.RegisterRequest) error {
	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", req.Email).Msg("registration failed")
		return fmt.Errorf("register: %w", err)
	}

	user := resp.User
	if user == nil {
		user = &model.UserProfile{Email: req.Email, FirstName: req.FirstName, LastName: req.LastName}
	}
	return s.set(ctx, resp.Token, user)
}

// Logout clears the session in memory and in storage. Calls already in
// flight keep the token they were sent with.
func (s *Store) Logout(ctx context.Context) error {
	err := s.storage.Delete(ctx, TokenKey, UserKey)
	s.publish(Session{})
	if err != nil {
		return fmt.Errorf("clearing stored session: %w", err)
	}
	return nil
}

func (s *Store) set(ctx context.Context, token string, user *model.UserProfile) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := s.storage.Put(ctx, map[string]string{TokenKey: token, UserKey: string(raw)}); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	s.publish(Session{Token: token, User: user})
	return nil
}

func (s *Store) publish(next Session) {
	s.mu.Lock()
	s.current = next
	listeners := make([]func(Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// Token returns the current bearer token, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// User returns the cached profile, or nil.
func (s *Store) User() *model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.User
}

// Snapshot returns the whole current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnChange registers fn to be called after every change. The returned func
// unregisters it.
func (s *Store) OnChange(fn func(Session)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// TokenExpiry reads the exp claim of the current token without verifying
// it. It is informational; an expired token is only discovered when the API
// rejects it.
func (s *Store) TokenExpiry() (time.Time, error) {
	token := s.Token()
	if token == "" {
		return time.Time{}, ErrNoExpiry
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("reading token claims: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}
