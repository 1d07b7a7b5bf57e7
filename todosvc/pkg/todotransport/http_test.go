package todotransport_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/itogami/todolist/backend/authsvc/pkg/authservice"
	"github.com/itogami/todolist/backend/todosvc"
	todoinmem "github.com/itogami/todolist/backend/todosvc/inmem"
	"github.com/itogami/todolist/backend/todosvc/pkg/todoendpoint"
	"github.com/itogami/todolist/backend/todosvc/pkg/todoservice"
	"github.com/itogami/todolist/backend/todosvc/pkg/todotransport"
	userinmem "github.com/itogami/todolist/backend/usersvc/inmem"
	"github.com/itogami/todolist/backend/usersvc/pkg/userendpoint"
	"github.com/itogami/todolist/backend/usersvc/pkg/userservice"
	"github.com/itogami/todolist/backend/usersvc/pkg/usertransport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := log.NewNopLogger()

	todoEndpoints := todoendpoint.New(todoservice.New(todoinmem.NewTaskRepository(), logger), logger)
	userEndpoints := userendpoint.New(
		userservice.New(userinmem.NewUserRepository(), authservice.NewTokenizer(), logger),
		logger,
	)

	userHandler := usertransport.NewHTTPHandler(userEndpoints, logger)

	r := mux.NewRouter()
	r.PathPrefix("/api/register").Handler(userHandler)
	r.PathPrefix("/api/login").Handler(userHandler)
	r.PathPrefix("/").Handler(todotransport.NewHTTPHandler(todoEndpoints, logger))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv
}

func doJSON(t *testing.T, method, url, token string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp
}

func register(t *testing.T, srv *httptest.Server, username, email string) string {
	t.Helper()

	var reg userendpoint.RegisterResponse
	resp := doJSON(t, "POST", srv.URL+"/api/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "s3cret",
	}, &reg)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, reg.Token)

	return reg.Token
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	var reg userendpoint.RegisterResponse
	resp := doJSON(t, "POST", srv.URL+"/api/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cret",
	}, &reg)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "alice", reg.User.Username)

	resp = doJSON(t, "POST", srv.URL+"/api/register", "", map[string]string{
		"username": "bob",
		"email":    "alice@example.com",
		"password": "s3cret",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var login userendpoint.LoginResponse
	resp = doJSON(t, "POST", srv.URL+"/api/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "s3cret",
	}, &login)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, login.Token)

	resp = doJSON(t, "POST", srv.URL+"/api/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBearerTokenCarriesIdentity(t *testing.T) {
	srv := newTestServer(t)

	var reg userendpoint.RegisterResponse
	resp := doJSON(t, "POST", srv.URL+"/api/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cret",
	}, &reg)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The parsed claims must resolve to the registered user, not fail or
	// fall back to another owner.
	var created todoendpoint.CreateTaskResponse
	resp = doJSON(t, "POST", srv.URL+"/api/todos", reg.Token, map[string]string{
		"title": "buy milk",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, reg.User.ID, created.Task.UserID)
}

func TestTaskRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, "GET", srv.URL+"/api/todos", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, "GET", srv.URL+"/api/todos", "not.a.token", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := register(t, srv, "alice", "alice@example.com")

	resp := doJSON(t, "POST", srv.URL+"/api/todos", token, map[string]string{
		"description": "no title here",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var created todoendpoint.CreateTaskResponse
	resp = doJSON(t, "POST", srv.URL+"/api/todos", token, map[string]string{
		"title":       "buy milk",
		"description": "two liters",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "buy milk", created.Task.Title)
	assert.Equal(t, todosvc.PriorityMedium, created.Task.Priority)
	assert.False(t, created.Task.Completed)

	var listed todoendpoint.TasksResponse
	resp = doJSON(t, "GET", srv.URL+"/api/todos", token, nil, &listed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, listed.Tasks, 1)

	taskURL := fmt.Sprintf("%s/api/todos/%d", srv.URL, created.Task.ID)

	var updated todoendpoint.UpdateTaskResponse
	resp = doJSON(t, "PUT", taskURL, token, map[string]bool{"completed": true}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, updated.Task.Completed)
	assert.Equal(t, "buy milk", updated.Task.Title)

	// An empty update body is accepted and changes nothing.
	var unchanged todoendpoint.UpdateTaskResponse
	resp = doJSON(t, "PUT", taskURL, token, nil, &unchanged)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, updated.Task.Title, unchanged.Task.Title)
	assert.Equal(t, updated.Task.Completed, unchanged.Task.Completed)

	var stats todoendpoint.StatsResponse
	resp = doJSON(t, "GET", srv.URL+"/api/stats", token, nil, &stats)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, stats.Stats.Total)
	assert.Equal(t, 1, stats.Stats.Completed)
	assert.Equal(t, 0, stats.Stats.Pending)

	var deleted todoendpoint.DeleteTaskResponse
	resp = doJSON(t, "DELETE", taskURL, token, nil, &deleted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "todo deleted successfully", deleted.Message)

	resp = doJSON(t, "DELETE", taskURL, token, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, "GET", srv.URL+"/api/todos", token, nil, &listed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, listed.Tasks)
}

func TestTasksAreIsolatedPerUser(t *testing.T) {
	srv := newTestServer(t)
	alice := register(t, srv, "alice", "alice@example.com")
	bob := register(t, srv, "bob", "bob@example.com")

	var created todoendpoint.CreateTaskResponse
	resp := doJSON(t, "POST", srv.URL+"/api/todos", alice, map[string]string{
		"title": "alice's task",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var listed todoendpoint.TasksResponse
	resp = doJSON(t, "GET", srv.URL+"/api/todos", bob, nil, &listed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, listed.Tasks)

	taskURL := fmt.Sprintf("%s/api/todos/%d", srv.URL, created.Task.ID)
	resp = doJSON(t, "DELETE", taskURL, bob, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, "GET", srv.URL+"/api/todos", alice, nil, &listed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, listed.Tasks, 1)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	var health struct {
		Status string `json:"status"`
	}
	resp := doJSON(t, "GET", srv.URL+"/api/health", "", nil, &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", health.Status)
}

func TestPublicHandlerSkipsAuthentication(t *testing.T) {
	logger := log.NewNopLogger()
	endpoints := todoendpoint.New(todoservice.New(todoinmem.NewTaskRepository(), logger), logger)

	srv := httptest.NewServer(todotransport.NewPublicHTTPHandler(endpoints, logger))
	t.Cleanup(srv.Close)

	var created todoendpoint.CreateTaskResponse
	resp := doJSON(t, "POST", srv.URL+"/api/todos", "", map[string]string{
		"title": "no token needed",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, todosvc.PublicUserID, created.Task.UserID)

	var listed todoendpoint.TasksResponse
	resp = doJSON(t, "GET", srv.URL+"/api/todos", "", nil, &listed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, listed.Tasks, 1)
}
