package gorm

import (
	"errors"

	"github.com/itogami/todolist/backend/usersvc"
	stdgorm "gorm.io/gorm"
)

type userRepository struct {
	db *stdgorm.DB
}

func NewUserRepository(db *stdgorm.DB) usersvc.UserRepository {
	return &userRepository{db}
}

func (r *userRepository) Create(user usersvc.User) (usersvc.User, error) {
	var existing usersvc.User
	result := r.db.Where("email = ? OR username = ?", user.Email, user.Username).First(&existing)

	if result.Error == nil {
		return usersvc.User{}, usersvc.ErrUserExists
	}
	if !errors.Is(result.Error, stdgorm.ErrRecordNotFound) {
		return usersvc.User{}, result.Error
	}

	result = r.db.Create(&user)

	return user, result.Error
}

func (r *userRepository) FindByEmail(email string) (usersvc.User, error) {
	var user usersvc.User
	result := r.db.Where("email = ?", email).First(&user)

	if errors.Is(result.Error, stdgorm.ErrRecordNotFound) {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}

	return user, result.Error
}
