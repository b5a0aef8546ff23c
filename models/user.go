package models

import (
	"strings"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/utils"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

type User struct {
	ID        ID        `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"password,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type NewUser struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"omitempty,oneof=admin staff"`
}

func (result *User) PrepareGive() {
	result.Password = ""
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Build validates the input and returns a user with a hashed password. The id is left to the backend.
func (input *NewUser) Build(now time.Time) (*User, error) {
	if input == nil {
		return nil, NewValidationError("", "user is required")
	}
	input.Username = strings.TrimSpace(input.Username)
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}
	password := input.Password
	if !utils.IsPasswordHash(password) {
		hashed, err := utils.HashPassword(password)
		if err != nil {
			return nil, Internal("hash password", err)
		}
		password = string(hashed)
	}
	role := input.Role
	if role == "" {
		role = RoleAdmin
	}
	return &User{
		Username:  input.Username,
		Password:  password,
		Role:      role,
		CreatedAt: now,
	}, nil
}
