package gorm

import (
	"errors"

	"github.com/itogami/todolist/backend/todosvc"
	stdgorm "gorm.io/gorm"
)

type taskRepository struct {
	db *stdgorm.DB
}

func NewTaskRepository(db *stdgorm.DB) todosvc.TaskRepository {
	return &taskRepository{db}
}

func (t taskRepository) Create(task todosvc.Task) (todosvc.Task, error) {
	result := t.db.Create(&task)

	return task, result.Error
}

func (t taskRepository) FindAll(userID uint64) ([]todosvc.Task, error) {
	tasks := make([]todosvc.Task, 0)
	result := t.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&tasks)

	return tasks, result.Error
}

func (t taskRepository) Find(userID, taskID uint64) (todosvc.Task, error) {
	var task todosvc.Task
	result := t.db.Where("id = ? AND user_id = ?", taskID, userID).First(&task)

	if errors.Is(result.Error, stdgorm.ErrRecordNotFound) {
		return todosvc.Task{}, todosvc.ErrTaskNotFound
	}

	return task, result.Error
}

func (t taskRepository) Update(task todosvc.Task) (todosvc.Task, error) {
	result := t.db.Model(&todosvc.Task{}).
		Where("id = ? AND user_id = ?", task.ID, task.UserID).
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"priority":    task.Priority,
			"completed":   task.Completed,
			"updated_at":  task.UpdatedAt,
		})
	if result.Error != nil {
		return todosvc.Task{}, result.Error
	}
	if result.RowsAffected == 0 {
		return todosvc.Task{}, todosvc.ErrTaskNotFound
	}

	return task, nil
}

func (t taskRepository) Delete(userID, taskID uint64) error {
	result := t.db.Where("user_id = ?", userID).Delete(&todosvc.Task{ID: taskID})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return todosvc.ErrTaskNotFound
	}

	return nil
}

func (t taskRepository) Stats(userID uint64) (todosvc.Stats, error) {
	var total, completed, high int64

	model := func() *stdgorm.DB { return t.db.Model(&todosvc.Task{}) }

	if result := model().Where("user_id = ?", userID).Count(&total); result.Error != nil {
		return todosvc.Stats{}, result.Error
	}
	if result := model().Where("user_id = ? AND completed = ?", userID, true).Count(&completed); result.Error != nil {
		return todosvc.Stats{}, result.Error
	}
	if result := model().Where("user_id = ? AND priority = ?", userID, todosvc.PriorityHigh).Count(&high); result.Error != nil {
		return todosvc.Stats{}, result.Error
	}

	return todosvc.Stats{
		Total:        int(total),
		Completed:    int(completed),
		Pending:      int(total - completed),
		HighPriority: int(high),
	}, nil
}
