package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("admin@chat.com", "Administrador", "admin123")
	require.NoError(t, err)
	return s
}

func TestStore_SeedsAdmin(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)

	id, ok := s.Lookup("admin@chat.com")
	req.True(ok)
	req.Equal(RoleAdmin, id.Role)
	req.Equal("Administrador", id.Name)

	id, err := s.Authenticate("admin@chat.com", "admin123")
	req.NoError(err)
	req.True(id.Role.IsAdmin())
}

func TestStore_RegisterAndAuthenticate(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)

	id, err := s.Register("bob@chat.com", "bob", "secret")
	req.NoError(err)
	req.Equal(RoleMember, id.Role)
	req.Equal("bob@chat.com", id.Key)

	got, err := s.Authenticate("bob@chat.com", "secret")
	req.NoError(err)
	req.Equal(id, got)

	_, err = s.Authenticate("bob@chat.com", "wrong")
	req.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.Authenticate("nobody@chat.com", "secret")
	req.ErrorIs(err, ErrInvalidCredentials)
}

func TestStore_RegisterValidation(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)

	_, err := s.Register("", "bob", "secret")
	req.ErrorIs(err, ErrMissingField)
	_, err = s.Register("bob@chat.com", "", "secret")
	req.ErrorIs(err, ErrMissingField)
	_, err = s.Register("bob@chat.com", "bob", "")
	req.ErrorIs(err, ErrMissingField)
}

func TestStore_DuplicateEmailRejected(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)

	_, err := s.Register("bob@chat.com", "bob", "secret")
	req.NoError(err)
	_, err = s.Register("BOB@chat.com", "bobby", "other")
	req.ErrorIs(err, ErrEmailTaken)
}

func TestStore_LookupNormalizesKey(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)

	_, err := s.Register("Bob@Chat.com", "bob", "secret")
	req.NoError(err)

	id, ok := s.Lookup("  bob@chat.com ")
	req.True(ok)
	req.Equal("bob", id.Name)

	_, ok = s.Lookup("ghost@chat.com")
	req.False(ok)
}
