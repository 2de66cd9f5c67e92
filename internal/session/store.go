package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingField       = errors.New("all fields are required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Store is the in-memory user directory. It is seeded with the admin account
// and grows as users register; nothing survives a restart.
type Store struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewStore creates the directory and seeds the administrator account.
func NewStore(adminEmail, adminName, adminPassword string) (*Store, error) {
	s := &Store{users: make(map[string]*User)}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	s.users[adminEmail] = &User{
		Email:        adminEmail,
		Name:         adminName,
		PasswordHash: hash,
		Role:         RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	return s, nil
}

// Register creates a member account. Emails are the unique key.
func (s *Store) Register(email, name, password string) (Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" || password == "" {
		return Identity{}, ErrMissingField
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[email]; exists {
		return Identity{}, ErrEmailTaken
	}
	u := &User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         RoleMember,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[email] = u
	return u.Identity(), nil
}

// Authenticate checks a login attempt. Unknown emails and wrong passwords
// return the same error.
func (s *Store) Authenticate(email, password string) (Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	s.mu.RLock()
	u, ok := s.users[email]
	s.mu.RUnlock()
	if !ok {
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return u.Identity(), nil
}

// Lookup resolves an identity key. This is the read the chat core performs
// while binding a connection.
func (s *Store) Lookup(key string) (Identity, bool) {
	s.mu.RLock()
	u, ok := s.users[strings.TrimSpace(strings.ToLower(key))]
	s.mu.RUnlock()
	if !ok {
		return Identity{}, false
	}
	return u.Identity(), true
}
