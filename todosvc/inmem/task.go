package inmem

import (
	"sort"
	"sync"

	"github.com/itogami/todolist/backend/todosvc"
)

type taskRepository struct {
	mtx    sync.RWMutex
	nextID uint64
	tasks  map[uint64]todosvc.Task
}

func NewTaskRepository() todosvc.TaskRepository {
	return &taskRepository{tasks: make(map[uint64]todosvc.Task)}
}

func (r *taskRepository) Create(task todosvc.Task) (todosvc.Task, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.nextID++
	task.ID = r.nextID
	r.tasks[task.ID] = task

	return task, nil
}

func (r *taskRepository) FindAll(userID uint64) ([]todosvc.Task, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	tasks := make([]todosvc.Task, 0)
	for _, t := range r.tasks {
		if t.UserID == userID {
			tasks = append(tasks, t)
		}
	}

	// Map iteration order is random; sequential IDs restore insertion order.
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	return tasks, nil
}

func (r *taskRepository) Find(userID, taskID uint64) (todosvc.Task, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	task, ok := r.tasks[taskID]
	if !ok || task.UserID != userID {
		return todosvc.Task{}, todosvc.ErrTaskNotFound
	}

	return task, nil
}

func (r *taskRepository) Update(task todosvc.Task) (todosvc.Task, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	stored, ok := r.tasks[task.ID]
	if !ok || stored.UserID != task.UserID {
		return todosvc.Task{}, todosvc.ErrTaskNotFound
	}
	r.tasks[task.ID] = task

	return task, nil
}

func (r *taskRepository) Delete(userID, taskID uint64) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	task, ok := r.tasks[taskID]
	if !ok || task.UserID != userID {
		return todosvc.ErrTaskNotFound
	}
	delete(r.tasks, taskID)

	return nil
}

func (r *taskRepository) Stats(userID uint64) (todosvc.Stats, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	var s todosvc.Stats
	for _, t := range r.tasks {
		if t.UserID != userID {
			continue
		}
		s.Total++
		if t.Completed {
			s.Completed++
		}
		if t.Priority == todosvc.PriorityHigh {
			s.HighPriority++
		}
	}
	s.Pending = s.Total - s.Completed

	return s, nil
}
