package userservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/itogami/todolist/backend/authsvc/pkg/authservice"
	"github.com/itogami/todolist/backend/usersvc"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Register(ctx context.Context, username, email, password string) (string, usersvc.PublicUser, error)
	Login(ctx context.Context, email, password string) (string, usersvc.PublicUser, error)
}

func New(users usersvc.UserRepository, tokenizer authservice.Tokenizer, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(users, tokenizer)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	users     usersvc.UserRepository
	tokenizer authservice.Tokenizer
}

func NewBasicService(users usersvc.UserRepository, tokenizer authservice.Tokenizer) Service {
	return basicService{users: users, tokenizer: tokenizer}
}

func (s basicService) Register(_ context.Context, username, email, password string) (string, usersvc.PublicUser, error) {
	if username == "" || email == "" || password == "" {
		return "", usersvc.PublicUser{}, usersvc.ErrInvalidArgument
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", usersvc.PublicUser{}, err
	}

	user, err := s.users.Create(usersvc.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return "", usersvc.PublicUser{}, err
	}

	token, err := s.tokenizer.Generate(user.ID, user.Username)
	if err != nil {
		return "", usersvc.PublicUser{}, err
	}

	return token.Hash, user.Public(), nil
}

func (s basicService) Login(_ context.Context, email, password string) (string, usersvc.PublicUser, error) {
	if email == "" || password == "" {
		return "", usersvc.PublicUser{}, usersvc.ErrInvalidArgument
	}

	// Unknown email and wrong password report the same error so that the
	// response does not reveal which check failed.
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return "", usersvc.PublicUser{}, usersvc.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", usersvc.PublicUser{}, usersvc.ErrInvalidCredentials
	}

	token, err := s.tokenizer.Generate(user.ID, user.Username)
	if err != nil {
		return "", usersvc.PublicUser{}, err
	}

	return token.Hash, user.Public(), nil
}
