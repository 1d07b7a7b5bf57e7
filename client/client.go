package client

import (
	"context"
	"sync"
	"time"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/itogami/todolist/backend/todosvc"
	"github.com/itogami/todolist/backend/todosvc/pkg/todoendpoint"
	"github.com/itogami/todolist/backend/todosvc/pkg/todotransport"
	"github.com/itogami/todolist/backend/usersvc"
	"github.com/itogami/todolist/backend/usersvc/pkg/userendpoint"
	"github.com/itogami/todolist/backend/usersvc/pkg/usertransport"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Filter selects the subset of the cached task list to display. It is
// applied locally and never triggers a server round-trip.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterPending, FilterCompleted:
		return true
	}
	return false
}

// Client talks to a todosvc instance and keeps a best-effort mirror of
// the caller's task list and stats. The mirror is reconciled by a full
// refetch after every confirmed mutation; a failed mutation leaves it
// untouched.
type Client struct {
	users       userendpoint.Set
	todos       todoendpoint.Set
	sessionPath string

	mtx    sync.RWMutex
	token  string
	user   usersvc.PublicUser
	tasks  []todosvc.Task
	stats  todosvc.Stats
	filter Filter
}

// New builds a client against the given instance. A session stored at
// sessionPath by a previous process is picked up so that the caller
// resumes authenticated without re-prompting credentials.
func New(instance, sessionPath string, logger log.Logger) (*Client, error) {
	users, err := usertransport.NewHTTPClient(instance, logger)
	if err != nil {
		return nil, err
	}
	todos, err := todotransport.NewHTTPClient(instance, logger)
	if err != nil {
		return nil, err
	}

	users.RegisterEndpoint = resilient(users.RegisterEndpoint)
	users.LoginEndpoint = resilient(users.LoginEndpoint)
	todos.CreateTaskEndpoint = resilient(todos.CreateTaskEndpoint)
	todos.TasksEndpoint = resilient(todos.TasksEndpoint)
	todos.UpdateTaskEndpoint = resilient(todos.UpdateTaskEndpoint)
	todos.DeleteTaskEndpoint = resilient(todos.DeleteTaskEndpoint)
	todos.StatsEndpoint = resilient(todos.StatsEndpoint)

	c := &Client{
		users:       users,
		todos:       todos,
		sessionPath: sessionPath,
		filter:      FilterAll,
	}

	if s, err := loadSession(sessionPath); err == nil {
		c.token = s.Token
		c.user = s.User
	}

	return c, nil
}

func resilient(e endpoint.Endpoint) endpoint.Endpoint {
	e = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))(e)
	e = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Timeout: 30 * time.Second,
	}))(e)
	return e
}

func (c *Client) Register(ctx context.Context, username, email, password string) error {
	token, user, err := c.users.Register(ctx, username, email, password)
	if err != nil {
		return err
	}

	c.mtx.Lock()
	c.token = token
	c.user = user
	c.mtx.Unlock()

	if err := saveSession(c.sessionPath, &Session{Token: token, User: user}); err != nil {
		return err
	}

	return c.Refresh(ctx)
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	token, user, err := c.users.Login(ctx, email, password)
	if err != nil {
		return err
	}

	c.mtx.Lock()
	c.token = token
	c.user = user
	c.mtx.Unlock()

	if err := saveSession(c.sessionPath, &Session{Token: token, User: user}); err != nil {
		return err
	}

	return c.Refresh(ctx)
}

// Logout wipes the session and the local mirror. The token itself stays
// valid until expiry; there is no server-side revocation.
func (c *Client) Logout() error {
	c.mtx.Lock()
	c.token = ""
	c.user = usersvc.PublicUser{}
	c.tasks = nil
	c.stats = todosvc.Stats{}
	c.mtx.Unlock()

	return clearSession(c.sessionPath)
}

func (c *Client) Authenticated() bool {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.token != ""
}

func (c *Client) User() usersvc.PublicUser {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.user
}

func (c *Client) SetFilter(f Filter) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.filter = f
}

func (c *Client) Filter() Filter {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.filter
}

// Tasks returns the cached task list narrowed by the current filter.
func (c *Client) Tasks() []todosvc.Task {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	tasks := make([]todosvc.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		switch c.filter {
		case FilterPending:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		tasks = append(tasks, t)
	}

	return tasks
}

func (c *Client) Stats() todosvc.Stats {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.stats
}

// Refresh refetches the task list and stats into the local mirror.
func (c *Client) Refresh(ctx context.Context) error {
	ctx = c.authContext(ctx)

	tasks, err := c.todos.Tasks(ctx, todosvc.Auth{})
	if err != nil {
		return err
	}
	stats, err := c.todos.Stats(ctx, todosvc.Auth{})
	if err != nil {
		return err
	}

	c.mtx.Lock()
	c.tasks = tasks
	c.stats = stats
	c.mtx.Unlock()

	return nil
}

func (c *Client) CreateTask(ctx context.Context, title, description string, priority todosvc.Priority) (todosvc.Task, error) {
	task, err := c.todos.CreateTask(c.authContext(ctx), todosvc.Auth{}, title, description, priority)
	if err != nil {
		return todosvc.Task{}, err
	}

	return task, c.Refresh(ctx)
}

func (c *Client) UpdateTask(ctx context.Context, taskID uint64, update todosvc.TaskUpdate) (todosvc.Task, error) {
	task, err := c.todos.UpdateTask(c.authContext(ctx), todosvc.Auth{}, taskID, update)
	if err != nil {
		return todosvc.Task{}, err
	}

	return task, c.Refresh(ctx)
}

func (c *Client) DeleteTask(ctx context.Context, taskID uint64) error {
	if err := c.todos.DeleteTask(c.authContext(ctx), todosvc.Auth{}, taskID); err != nil {
		return err
	}

	return c.Refresh(ctx)
}

func (c *Client) authContext(ctx context.Context) context.Context {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return context.WithValue(ctx, kitjwt.JWTContextKey, c.token)
}
