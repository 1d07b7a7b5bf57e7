package todoservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/itogami/todolist/backend/todosvc"
)

type Service interface {
	CreateTask(ctx context.Context, a todosvc.Auth, title, description string, priority todosvc.Priority) (todosvc.Task, error)
	Tasks(ctx context.Context, a todosvc.Auth) ([]todosvc.Task, error)
	UpdateTask(ctx context.Context, a todosvc.Auth, taskID uint64, update todosvc.TaskUpdate) (todosvc.Task, error)
	DeleteTask(ctx context.Context, a todosvc.Auth, taskID uint64) error
	Stats(ctx context.Context, a todosvc.Auth) (todosvc.Stats, error)
}

func New(t todosvc.TaskRepository, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(t)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	tasks todosvc.TaskRepository
}

func NewBasicService(t todosvc.TaskRepository) Service {
	return basicService{tasks: t}
}

func (s basicService) CreateTask(_ context.Context, a todosvc.Auth, title, description string, priority todosvc.Priority) (todosvc.Task, error) {
	if title == "" {
		return todosvc.Task{}, todosvc.ErrTitleRequired
	}
	if priority == "" {
		priority = todosvc.PriorityMedium
	}
	if !priority.Valid() {
		return todosvc.Task{}, todosvc.ErrInvalidArgument
	}

	now := time.Now()

	return s.tasks.Create(todosvc.Task{
		UserID:      a.UserID,
		Title:       title,
		Description: description,
		Priority:    priority,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s basicService) Tasks(_ context.Context, a todosvc.Auth) ([]todosvc.Task, error) {
	return s.tasks.FindAll(a.UserID)
}

func (s basicService) UpdateTask(_ context.Context, a todosvc.Auth, taskID uint64, update todosvc.TaskUpdate) (todosvc.Task, error) {
	task, err := s.tasks.Find(a.UserID, taskID)
	if err != nil {
		return todosvc.Task{}, err
	}

	if update.Title != nil {
		if *update.Title == "" {
			return todosvc.Task{}, todosvc.ErrTitleRequired
		}
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Priority != nil {
		if !update.Priority.Valid() {
			return todosvc.Task{}, todosvc.ErrInvalidArgument
		}
		task.Priority = *update.Priority
	}
	if update.Completed != nil {
		task.Completed = *update.Completed
	}
	task.UpdatedAt = time.Now()

	return s.tasks.Update(task)
}

func (s basicService) DeleteTask(_ context.Context, a todosvc.Auth, taskID uint64) error {
	return s.tasks.Delete(a.UserID, taskID)
}

func (s basicService) Stats(_ context.Context, a todosvc.Auth) (todosvc.Stats, error) {
	return s.tasks.Stats(a.UserID)
}
