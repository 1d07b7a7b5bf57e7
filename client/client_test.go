package client_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/itogami/todolist/backend/authsvc/pkg/authservice"
	"github.com/itogami/todolist/backend/client"
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

func newTestClient(t *testing.T, srv *httptest.Server, sessionPath string) *client.Client {
	t.Helper()

	c, err := client.New(srv.URL, sessionPath, log.NewNopLogger())
	require.NoError(t, err)

	return c
}

func sessionPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "session.json")
}

func TestRegisterPersistsSession(t *testing.T) {
	srv := newTestServer(t)
	path := sessionPath(t)

	c := newTestClient(t, srv, path)
	require.False(t, c.Authenticated())

	require.NoError(t, c.Register(context.Background(), "alice", "alice@example.com", "s3cret"))
	assert.True(t, c.Authenticated())
	assert.Equal(t, "alice", c.User().Username)

	_, err := os.Stat(path)
	require.NoError(t, err)

	// A fresh process picks the session up and resumes authenticated.
	resumed := newTestClient(t, srv, path)
	assert.True(t, resumed.Authenticated())
	assert.Equal(t, "alice", resumed.User().Username)
	assert.NoError(t, resumed.Refresh(context.Background()))
}

func TestMutationsRefreshCache(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv, sessionPath(t))
	require.NoError(t, c.Register(context.Background(), "alice", "alice@example.com", "s3cret"))

	task, err := c.CreateTask(context.Background(), "buy milk", "two liters", "")
	require.NoError(t, err)
	assert.Equal(t, todosvc.PriorityMedium, task.Priority)

	require.Len(t, c.Tasks(), 1)
	assert.Equal(t, 1, c.Stats().Total)
	assert.Equal(t, 1, c.Stats().Pending)

	completed := true
	_, err = c.UpdateTask(context.Background(), task.ID, todosvc.TaskUpdate{Completed: &completed})
	require.NoError(t, err)

	require.Len(t, c.Tasks(), 1)
	assert.True(t, c.Tasks()[0].Completed)
	assert.Equal(t, 1, c.Stats().Completed)

	require.NoError(t, c.DeleteTask(context.Background(), task.ID))
	assert.Empty(t, c.Tasks())
	assert.Equal(t, 0, c.Stats().Total)
}

func TestFailedMutationLeavesCacheUntouched(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv, sessionPath(t))
	require.NoError(t, c.Register(context.Background(), "alice", "alice@example.com", "s3cret"))

	_, err := c.CreateTask(context.Background(), "buy milk", "", "")
	require.NoError(t, err)

	completed := true
	_, err = c.UpdateTask(context.Background(), 99, todosvc.TaskUpdate{Completed: &completed})
	require.Error(t, err)
	require.Error(t, c.DeleteTask(context.Background(), 99))

	assert.Len(t, c.Tasks(), 1)
	assert.Equal(t, 1, c.Stats().Total)
	assert.Equal(t, 1, c.Stats().Pending)
}

func TestFilterIsAppliedLocally(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv, sessionPath(t))
	require.NoError(t, c.Register(context.Background(), "alice", "alice@example.com", "s3cret"))

	done, err := c.CreateTask(context.Background(), "done", "", "")
	require.NoError(t, err)
	_, err = c.CreateTask(context.Background(), "pending", "", "")
	require.NoError(t, err)

	completed := true
	_, err = c.UpdateTask(context.Background(), done.ID, todosvc.TaskUpdate{Completed: &completed})
	require.NoError(t, err)

	// Filtering works off the cached list; no server round-trip happens.
	srv.Close()

	require.Len(t, c.Tasks(), 2)

	c.SetFilter(client.FilterPending)
	require.Len(t, c.Tasks(), 1)
	assert.Equal(t, "pending", c.Tasks()[0].Title)

	c.SetFilter(client.FilterCompleted)
	require.Len(t, c.Tasks(), 1)
	assert.Equal(t, "done", c.Tasks()[0].Title)

	c.SetFilter(client.FilterAll)
	assert.Len(t, c.Tasks(), 2)
}

func TestLogout(t *testing.T) {
	srv := newTestServer(t)
	path := sessionPath(t)
	c := newTestClient(t, srv, path)
	require.NoError(t, c.Register(context.Background(), "alice", "alice@example.com", "s3cret"))

	_, err := c.CreateTask(context.Background(), "buy milk", "", "")
	require.NoError(t, err)

	require.NoError(t, c.Logout())

	assert.False(t, c.Authenticated())
	assert.Empty(t, c.Tasks())
	assert.Equal(t, todosvc.Stats{}, c.Stats())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Logging out twice is harmless even though the file is gone.
	assert.NoError(t, c.Logout())
}

func TestFilterValidation(t *testing.T) {
	assert.True(t, client.FilterAll.Valid())
	assert.True(t, client.FilterPending.Valid())
	assert.True(t, client.FilterCompleted.Valid())
	assert.False(t, client.Filter("urgent").Valid())
}
