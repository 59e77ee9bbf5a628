package model

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleManager Role = "manager"
	RoleMember  Role = "member"
	RoleAdmin   Role = "admin"
)

// ParseRole accepts only the assignable roles, spelled exactly. The empty
// string is not a role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleManager, RoleMember, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// UserStatus is the account lifecycle stage. It is a closed set; code that
// branches on it switches over all three values.
type UserStatus string

const (
	StatusPending  UserStatus = "pending"
	StatusActive   UserStatus = "active"
	StatusRejected UserStatus = "rejected"
)

func ParseUserStatus(s string) (UserStatus, error) {
	switch st := UserStatus(s); st {
	case StatusPending, StatusActive, StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("unknown user status %q", s)
	}
}

type User struct {
	ID             string     `json:"_id"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"` // Not exposed
	Name           string     `json:"name"`
	Role           *Role      `json:"role"`
	Status         UserStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Public returns a copy without the password hash.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.HashedPassword = ""
	if u.Role != nil {
		r := *u.Role
		cp.Role = &r
	}
	return &cp
}

// RoleName is the role as a plain string, empty when unset.
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return string(*u.Role)
}

// NormalizeEmail is applied before every store write and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func RolePtr(r Role) *Role { return &r }
