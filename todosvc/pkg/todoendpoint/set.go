package todoendpoint

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	stdjwt "github.com/golang-jwt/jwt/v4"
	"github.com/itogami/todolist/backend/authsvc"
	"github.com/itogami/todolist/backend/todosvc"
	"github.com/itogami/todolist/backend/todosvc/pkg/todoservice"
)

type Set struct {
	CreateTaskEndpoint endpoint.Endpoint
	TasksEndpoint      endpoint.Endpoint
	UpdateTaskEndpoint endpoint.Endpoint
	DeleteTaskEndpoint endpoint.Endpoint
	StatsEndpoint      endpoint.Endpoint
}

func New(svc todoservice.Service, logger log.Logger) Set {
	var createTaskEndpoint endpoint.Endpoint
	{
		createTaskEndpoint = MakeCreateTaskEndpoint(svc)
		createTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "CreateTask"))(createTaskEndpoint)
	}

	var tasksEndpoint endpoint.Endpoint
	{
		tasksEndpoint = MakeTasksEndpoint(svc)
		tasksEndpoint = LoggingMiddleware(log.With(logger, "method", "Tasks"))(tasksEndpoint)
	}

	var updateTaskEndpoint endpoint.Endpoint
	{
		updateTaskEndpoint = MakeUpdateTaskEndpoint(svc)
		updateTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "UpdateTask"))(updateTaskEndpoint)
	}

	var deleteTaskEndpoint endpoint.Endpoint
	{
		deleteTaskEndpoint = MakeDeleteTaskEndpoint(svc)
		deleteTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "DeleteTask"))(deleteTaskEndpoint)
	}

	var statsEndpoint endpoint.Endpoint
	{
		statsEndpoint = MakeStatsEndpoint(svc)
		statsEndpoint = LoggingMiddleware(log.With(logger, "method", "Stats"))(statsEndpoint)
	}

	return Set{
		CreateTaskEndpoint: createTaskEndpoint,
		TasksEndpoint:      tasksEndpoint,
		UpdateTaskEndpoint: updateTaskEndpoint,
		DeleteTaskEndpoint: deleteTaskEndpoint,
		StatsEndpoint:      statsEndpoint,
	}
}

func (s Set) CreateTask(ctx context.Context, _ todosvc.Auth, title, description string, priority todosvc.Priority) (todosvc.Task, error) {
	resp, err := s.CreateTaskEndpoint(ctx, CreateTaskRequest{Title: title, Description: description, Priority: priority})
	if err != nil {
		return todosvc.Task{}, err
	}
	response := resp.(CreateTaskResponse)
	return response.Task, response.Err
}

func (s Set) Tasks(ctx context.Context, _ todosvc.Auth) ([]todosvc.Task, error) {
	resp, err := s.TasksEndpoint(ctx, TasksRequest{})
	if err != nil {
		return nil, err
	}
	response := resp.(TasksResponse)
	return response.Tasks, response.Err
}

func (s Set) UpdateTask(ctx context.Context, _ todosvc.Auth, taskID uint64, update todosvc.TaskUpdate) (todosvc.Task, error) {
	resp, err := s.UpdateTaskEndpoint(
		ctx,
		UpdateTaskRequest{
			TaskID:      taskID,
			Title:       update.Title,
			Description: update.Description,
			Priority:    update.Priority,
			Completed:   update.Completed,
		},
	)
	if err != nil {
		return todosvc.Task{}, err
	}
	response := resp.(UpdateTaskResponse)
	return response.Task, response.Err
}

func (s Set) DeleteTask(ctx context.Context, _ todosvc.Auth, taskID uint64) error {
	resp, err := s.DeleteTaskEndpoint(ctx, DeleteTaskRequest{TaskID: taskID})
	if err != nil {
		return err
	}
	response := resp.(DeleteTaskResponse)
	return response.Err
}

func (s Set) Stats(ctx context.Context, _ todosvc.Auth) (todosvc.Stats, error) {
	resp, err := s.StatsEndpoint(ctx, StatsRequest{})
	if err != nil {
		return todosvc.Stats{}, err
	}
	response := resp.(StatsResponse)
	return response.Stats, response.Err
}

func MakeCreateTaskEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := claims(ctx)
		if err != nil {
			return CreateTaskResponse{Err: err}, nil
		}

		req := request.(CreateTaskRequest)
		t, err := s.CreateTask(ctx, auth, req.Title, req.Description, req.Priority)
		return CreateTaskResponse{Task: t, Err: err}, nil
	}
}

func MakeTasksEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := claims(ctx)
		if err != nil {
			return TasksResponse{Err: err}, nil
		}

		_ = request.(TasksRequest)
		t, err := s.Tasks(ctx, auth)
		return TasksResponse{Tasks: t, Err: err}, nil
	}
}

func MakeUpdateTaskEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := claims(ctx)
		if err != nil {
			return UpdateTaskResponse{Err: err}, nil
		}

		req := request.(UpdateTaskRequest)
		t, err := s.UpdateTask(
			ctx,
			auth,
			req.TaskID,
			todosvc.TaskUpdate{
				Title:       req.Title,
				Description: req.Description,
				Priority:    req.Priority,
				Completed:   req.Completed,
			},
		)
		return UpdateTaskResponse{Task: t, Err: err}, nil
	}
}

func MakeDeleteTaskEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := claims(ctx)
		if err != nil {
			return DeleteTaskResponse{Err: err}, nil
		}

		req := request.(DeleteTaskRequest)
		err = s.DeleteTask(ctx, auth, req.TaskID)
		if err != nil {
			return DeleteTaskResponse{Err: err}, nil
		}
		return DeleteTaskResponse{Message: "todo deleted successfully"}, nil
	}
}

func MakeStatsEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := claims(ctx)
		if err != nil {
			return StatsResponse{Err: err}, nil
		}

		_ = request.(StatsRequest)
		st, err := s.Stats(ctx, auth)
		return StatsResponse{Stats: st, Err: err}, nil
	}
}

// claims resolves the caller's identity. The public deployment profile
// injects it directly into the context; the protected profile derives it
// from the parsed JWT claims.
func claims(ctx context.Context) (todosvc.Auth, error) {
	if a, ok := ctx.Value(authsvc.AuthContextKey).(todosvc.Auth); ok {
		return a, nil
	}

	mc, ok := ctx.Value(kitjwt.JWTClaimsContextKey).(stdjwt.MapClaims)
	if !ok {
		return todosvc.Auth{}, todosvc.ErrClaimsMissing
	}

	id, ok := mc["uuid"].(string)
	if !ok {
		return todosvc.Auth{}, todosvc.ErrClaimsInvalid
	}

	username, ok := mc["username"].(string)
	if !ok {
		return todosvc.Auth{}, todosvc.ErrClaimsInvalid
	}

	userID, err := strconv.ParseUint(fmt.Sprintf("%.f", mc["user_id"]), 10, 64)
	if err != nil {
		return todosvc.Auth{}, todosvc.ErrClaimsInvalid
	}

	return todosvc.Auth{TokenID: id, UserID: userID, Username: username}, nil
}

var (
	_ endpoint.Failer = CreateTaskResponse{}
	_ endpoint.Failer = TasksResponse{}
	_ endpoint.Failer = UpdateTaskResponse{}
	_ endpoint.Failer = DeleteTaskResponse{}
	_ endpoint.Failer = StatsResponse{}
)

type CreateTaskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Priority    todosvc.Priority `json:"priority"`
}

type CreateTaskResponse struct {
	Task todosvc.Task `json:"task"`
	Err  error        `json:"-"`
}

func (r CreateTaskResponse) Failed() error { return r.Err }

func (r CreateTaskResponse) StatusCode() int { return http.StatusCreated }

type TasksRequest struct{}

type TasksResponse struct {
	Tasks []todosvc.Task `json:"tasks"`
	Err   error          `json:"-"`
}

func (r TasksResponse) Failed() error { return r.Err }

type UpdateTaskRequest struct {
	TaskID      uint64            `json:"-"`
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Priority    *todosvc.Priority `json:"priority"`
	Completed   *bool             `json:"completed"`
}

type UpdateTaskResponse struct {
	Task todosvc.Task `json:"task"`
	Err  error        `json:"-"`
}

func (r UpdateTaskResponse) Failed() error { return r.Err }

type DeleteTaskRequest struct {
	TaskID uint64 `json:"-"`
}

type DeleteTaskResponse struct {
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (r DeleteTaskResponse) Failed() error { return r.Err }

type StatsRequest struct{}

type StatsResponse struct {
	Stats todosvc.Stats `json:"stats"`
	Err   error         `json:"-"`
}

func (r StatsResponse) Failed() error { return r.Err }
