package domain

import (
	"slices"
	"time"
)

// Role names granted after email confirmation. Grants are additive only;
// no code path removes a role.
const (
	RoleAdmin = "Admin"
	RoleBasic = "Basic"
)

type User struct {
	UserID         string    `json:"id" dynamodbav:"user_id"`
	Email          string    `json:"email" dynamodbav:"email"`
	PasswordHash   string    `json:"-" dynamodbav:"password_hash"`
	EmailConfirmed bool      `json:"email_confirmed" dynamodbav:"email_confirmed"`
	Roles          []string  `json:"roles" dynamodbav:"roles,omitempty"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}

func (u *User) HasRole(name string) bool {
	return slices.Contains(u.Roles, name)
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}
