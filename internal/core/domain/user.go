package domain

import (
	"fmt"
	"strings"
)

// Role is the authorization role of a user. The wire and storage form is the
// upper-case name returned by String.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
)

func (r Role) String() string { return string(r) }

// ParseRole maps a wire value to a Role. Unknown values are rejected rather
// than defaulted.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMIN":
		return RoleAdmin, nil
	case "CLIENT":
		return RoleClient, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if _, err := ParseRole(string(r)); err != nil {
		return nil, err
	}
	return []byte(r), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User models an authenticated actor in the system.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	Audit
}
