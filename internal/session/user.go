package session

import "time"

// Role is the closed set of privilege levels an account can hold.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// User is an account in the directory. The password hash never leaves the
// process.
type User struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash []byte    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the read-only view of an authenticated account handed to the
// chat core and to HTTP responses.
type Identity struct {
	Key  string `json:"email"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

func (u *User) Identity() Identity {
	return Identity{Key: u.Email, Name: u.Name, Role: u.Role}
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }
