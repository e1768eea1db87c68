package auth

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// Name is the display name shown next to records the user created.
func (u User) Name() string {
	return u.FirstName + " " + u.LastName
}

type RegisterInput struct {
	FirstName       string `json:"first_name" validate:"required,max=150"`
	LastName        string `json:"last_name" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// Result is what a successful register, login or refresh hands back.
type Result struct {
	User   *User
	Tokens TokenPair
}
