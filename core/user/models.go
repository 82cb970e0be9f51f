package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrNotFound = errors.New("user not found")

// Roles
const (
	// Admin
	RoleAdmin = "admin:"

	// Supervisor: proposes SAEs and attributes students to them.
	RoleSupervisor = "supervisor:"

	// Student
	RoleStudent = "student:"
)

var AllRoles = []string{RoleAdmin, RoleSupervisor, RoleStudent}

type (
	User struct {
		ID           int       `json:"id" db:"id"`
		Name         string    `json:"name" db:"name"`
		Username     string    `json:"username" db:"username"`
		Email        string    `json:"email" db:"email"`
		IsActive     *bool     `json:"is_active" db:"is_active"`
		Roles        []string  `json:"roles" db:"-"`
		PasswordHash []byte    `json:"-" db:"password_hash"`
		CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
		UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	}

	// GetFilter applies an OR operation on its non-zero fields.
	GetFilter struct {
		ID              int
		UsernameOrEmail string
	}

	Repository interface {
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User) (User, error)
	}
)

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool      { return u.RoleStartsWith(RoleAdmin) }
func (u *User) IsSupervisor() bool { return u.RoleStartsWith(RoleSupervisor) }
func (u *User) IsStudent() bool    { return u.RoleStartsWith(RoleStudent) }
