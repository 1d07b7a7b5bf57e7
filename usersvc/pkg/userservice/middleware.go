package userservice

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/itogami/todolist/backend/usersvc"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) Register(ctx context.Context, username, email, password string) (token string, user usersvc.PublicUser, err error) {
	defer func() {
		mw.logger.Log("method", "Register", "username", username, "email", email, "err", err)
	}()
	return mw.next.Register(ctx, username, email, password)
}

func (mw loggingMiddleware) Login(ctx context.Context, email, password string) (token string, user usersvc.PublicUser, err error) {
	defer func() {
		mw.logger.Log("method", "Login", "email", email, "err", err)
	}()
	return mw.next.Login(ctx, email, password)
}
