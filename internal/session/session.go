// Package session persists the logged-in user's bearer token and cached
// role. Token and role live in one record so logout removes both at once.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Role values.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Session is the persisted login state.
type Session struct {
	Token string `json:"token"`
	Role  string `json:"role,omitempty"`
}

// LoggedIn reports whether a token is present.
func (s Session) LoggedIn() bool {
	return strings.TrimSpace(s.Token) != ""
}

// EffectiveRole returns the cached role, defaulting to "user".
func (s Session) EffectiveRole() string {
	if s.Role == "" {
		return RoleUser
	}
	return s.Role
}

// Store is durable session storage. Token satisfies api.TokenSource.
type Store interface {
	Load() (Session, error)
	Save(token string) error
	Token() (string, error)
	SaveRole(role string) error
	Role() string
	Clear() error
	IsLoggedIn() bool
	IsAdmin() bool
}

// ErrEmptyToken is returned when saving a blank token.
var ErrEmptyToken = errors.New("token is empty")

// backend reads and writes the whole session record. get returns a zero
// Session and false when nothing is stored.
type backend interface {
	get() (Session, bool, error)
	put(Session) error
	del() error
}

// recordStore implements Store on top of a backend. Updates are
// read-modify-write under mu so Save and SaveRole never drop each other's
// field within one process.
type recordStore struct {
	mu sync.Mutex
	b  backend
}

func (s *recordStore) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, _, err := s.b.get()
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

func (s *recordStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	return s.update(func(sess *Session) { sess.Token = token })
}

func (s *recordStore) Token() (string, error) {
	sess, err := s.Load()
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

func (s *recordStore) SaveRole(role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	return s.update(func(sess *Session) { sess.Role = role })
}

// Role returns the cached role. Storage errors yield the default role.
func (s *recordStore) Role() string {
	sess, err := s.Load()
	if err != nil {
		return RoleUser
	}
	return sess.EffectiveRole()
}

func (s *recordStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.b.del(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *recordStore) IsLoggedIn() bool {
	sess, err := s.Load()
	return err == nil && sess.LoggedIn()
}

func (s *recordStore) IsAdmin() bool {
	return s.Role() == RoleAdmin
}

func (s *recordStore) update(fn func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, _, err := s.b.get()
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	fn(&sess)
	if err := s.b.put(sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// MemoryStore keeps the session in process memory only.
type MemoryStore struct {
	recordStore
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.b = &memoryBackend{}
	return s
}

type memoryBackend struct {
	sess Session
	set  bool
}

func (m *memoryBackend) get() (Session, bool, error) { return m.sess, m.set, nil }

func (m *memoryBackend) put(sess Session) error {
	m.sess, m.set = sess, true
	return nil
}

func (m *memoryBackend) del() error {
	m.sess, m.set = Session{}, false
	return nil
}
