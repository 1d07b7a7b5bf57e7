package inmem

import (
	"sync"

	"github.com/itogami/todolist/backend/usersvc"
)

type userRepository struct {
	mtx    sync.RWMutex
	nextID uint64
	users  map[uint64]usersvc.User
}

func NewUserRepository() usersvc.UserRepository {
	return &userRepository{users: make(map[uint64]usersvc.User)}
}

func (r *userRepository) Create(user usersvc.User) (usersvc.User, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return usersvc.User{}, usersvc.ErrUserExists
		}
	}

	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user

	return user, nil
}

func (r *userRepository) FindByEmail(email string) (usersvc.User, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}

	return usersvc.User{}, usersvc.ErrUserNotFound
}
