package userendpoint

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/itogami/todolist/backend/usersvc"
	"github.com/itogami/todolist/backend/usersvc/pkg/userservice"
)

type Set struct {
	RegisterEndpoint endpoint.Endpoint
	LoginEndpoint    endpoint.Endpoint
}

func New(svc userservice.Service, logger log.Logger) Set {
	var registerEndpoint endpoint.Endpoint
	{
		registerEndpoint = MakeRegisterEndpoint(svc)
		registerEndpoint = LoggingMiddleware(log.With(logger, "method", "Register"))(registerEndpoint)
	}

	var loginEndpoint endpoint.Endpoint
	{
		loginEndpoint = MakeLoginEndpoint(svc)
		loginEndpoint = LoggingMiddleware(log.With(logger, "method", "Login"))(loginEndpoint)
	}

	return Set{
		RegisterEndpoint: registerEndpoint,
		LoginEndpoint:    loginEndpoint,
	}
}

func (s Set) Register(ctx context.Context, username, email, password string) (string, usersvc.PublicUser, error) {
	resp, err := s.RegisterEndpoint(ctx, RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return "", usersvc.PublicUser{}, err
	}
	response := resp.(RegisterResponse)
	return response.Token, response.User, response.Err
}

func (s Set) Login(ctx context.Context, email, password string) (string, usersvc.PublicUser, error) {
	resp, err := s.LoginEndpoint(ctx, LoginRequest{Email: email, Password: password})
	if err != nil {
		return "", usersvc.PublicUser{}, err
	}
	response := resp.(LoginResponse)
	return response.Token, response.User, response.Err
}

func MakeRegisterEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(RegisterRequest)
		token, user, err := s.Register(ctx, req.Username, req.Email, req.Password)
		return RegisterResponse{Token: token, User: user, Err: err}, nil
	}
}

func MakeLoginEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(LoginRequest)
		token, user, err := s.Login(ctx, req.Email, req.Password)
		return LoginResponse{Token: token, User: user, Err: err}, nil
	}
}

var (
	_ endpoint.Failer = RegisterResponse{}
	_ endpoint.Failer = LoginResponse{}
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Token string             `json:"token"`
	User  usersvc.PublicUser `json:"user"`
	Err   error              `json:"-"`
}

func (r RegisterResponse) Failed() error { return r.Err }

func (r RegisterResponse) StatusCode() int { return http.StatusCreated }

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  usersvc.PublicUser `json:"user"`
	Err   error              `json:"-"`
}

func (r LoginResponse) Failed() error { return r.Err }
