package usersvc

import (
	"errors"
	"time"
)

type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the subset of User that may leave the process.
type PublicUser struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

type UserRepository interface {
	// Create stores a new user. It fails with ErrUserExists when another
	// user already holds the same email or username.
	Create(user User) (User, error)
	FindByEmail(email string) (User, error)
}

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)
