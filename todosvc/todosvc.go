package todosvc

import (
	"errors"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskUpdate carries the fields of a partial update. Nil means
// "keep the stored value".
type TaskUpdate struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Priority    *Priority `json:"priority"`
	Completed   *bool     `json:"completed"`
}

type Stats struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	Pending      int `json:"pending"`
	HighPriority int `json:"highPriority"`
}

type TaskRepository interface {
	Create(task Task) (Task, error)
	FindAll(userID uint64) ([]Task, error)
	Find(userID, taskID uint64) (Task, error)
	Update(task Task) (Task, error)
	Delete(userID, taskID uint64) error
	Stats(userID uint64) (Stats, error)
}

type Auth struct {
	TokenID  string
	UserID   uint64
	Username string
}

// PublicUserID is the owner every request is scoped to when the service
// runs without authentication.
const PublicUserID uint64 = 0

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTitleRequired   = errors.New("title is required")
	ErrTaskNotFound    = errors.New("todo not found")
	ErrClaimsMissing   = errors.New("JWT claims was not passed through the context")
	ErrClaimsInvalid   = errors.New("JWT claims was invalid")
)
