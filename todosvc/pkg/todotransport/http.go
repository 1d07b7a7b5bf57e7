package todotransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	stdjwt "github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/itogami/todolist/backend/authsvc"
	"github.com/itogami/todolist/backend/authsvc/pkg/authservice"
	"github.com/itogami/todolist/backend/todosvc"
	"github.com/itogami/todolist/backend/todosvc/pkg/todoendpoint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPHandler mounts the task routes behind the JWT parser. Every
// route except health and metrics requires a bearer token.
func NewHTTPHandler(endpoints todoendpoint.Set, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		httptransport.ServerBefore(kitjwt.HTTPToContext()),
	}

	parser := kitjwt.NewParser(
		authservice.KeyFunc,
		stdjwt.SigningMethodHS256,
		kitjwt.MapClaimsFactory,
	)

	createTaskHandler := httptransport.NewServer(
		parser(endpoints.CreateTaskEndpoint),
		decodeHTTPCreateTaskRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	tasksHandler := httptransport.NewServer(
		parser(endpoints.TasksEndpoint),
		decodeHTTPTasksRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	updateTaskHandler := httptransport.NewServer(
		parser(endpoints.UpdateTaskEndpoint),
		decodeHTTPUpdateTaskRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	deleteTaskHandler := httptransport.NewServer(
		parser(endpoints.DeleteTaskEndpoint),
		decodeHTTPDeleteTaskRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	statsHandler := httptransport.NewServer(
		parser(endpoints.StatsEndpoint),
		decodeHTTPStatsRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	return newRouter(createTaskHandler, tasksHandler, updateTaskHandler, deleteTaskHandler, statsHandler)
}

// NewPublicHTTPHandler mounts the same routes without the JWT parser.
// Every request is scoped to the shared public owner, which reproduces
// the unauthenticated deployment profile.
func NewPublicHTTPHandler(endpoints todoendpoint.Set, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		httptransport.ServerBefore(publicIdentity),
	}

	createTaskHandler := httptransport.NewServer(
		endpoints.CreateTaskEndpoint,
		decodeHTTPCreateTaskRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	tasksHandler := httptransport.NewServer(
		endpoints.TasksEndpoint,
		decodeHTTPTasksRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	updateTaskHandler := httptransport.NewServer(
		endpoints.UpdateTaskEndpoint,
		decodeHTTPUpdateTaskRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	deleteTaskHandler := httptransport.NewServer(
		endpoints.DeleteTaskEndpoint,
		decodeHTTPDeleteTaskRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	statsHandler := httptransport.NewServer(
		endpoints.StatsEndpoint,
		decodeHTTPStatsRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	return newRouter(createTaskHandler, tasksHandler, updateTaskHandler, deleteTaskHandler, statsHandler)
}

func newRouter(create, tasks, update, del, stats http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.Methods("POST").Path("/api/todos").Handler(create)
	r.Methods("GET").Path("/api/todos").Handler(tasks)
	r.Methods("PUT").Path("/api/todos/{task_id}").Handler(update)
	r.Methods("DELETE").Path("/api/todos/{task_id}").Handler(del)
	r.Methods("GET").Path("/api/stats").Handler(stats)
	r.Methods("GET").Path("/api/health").HandlerFunc(healthHandler)
	r.Methods("GET").Path("/metrics").Handler(promhttp.Handler())

	return r
}

func publicIdentity(ctx context.Context, _ *http.Request) context.Context {
	return context.WithValue(ctx, authsvc.AuthContextKey, todosvc.Auth{UserID: todosvc.PublicUserID})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(healthResponse{Status: "OK", Timestamp: time.Now()})
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHTTPClient returns the task endpoints of a remote instance as a
// todoservice.Service. The caller's bearer token travels through the
// context via kitjwt.JWTContextKey.
func NewHTTPClient(instance string, logger log.Logger) (todoendpoint.Set, error) {
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return todoendpoint.Set{}, err
	}

	options := []httptransport.ClientOption{
		httptransport.ClientBefore(kitjwt.ContextToHTTP()),
	}

	var createTaskEndpoint endpoint.Endpoint
	{
		createTaskEndpoint = httptransport.NewClient(
			"POST",
			copyURL(u, "/api/todos"),
			encodeHTTPGenericRequest,
			decodeHTTPCreateTaskResponse,
			options...,
		).Endpoint()
	}

	var tasksEndpoint endpoint.Endpoint
	{
		tasksEndpoint = httptransport.NewClient(
			"GET",
			copyURL(u, "/api/todos"),
			encodeHTTPGenericRequest,
			decodeHTTPTasksResponse,
			options...,
		).Endpoint()
	}

	var updateTaskEndpoint endpoint.Endpoint
	{
		updateTaskEndpoint = httptransport.NewClient(
			"PUT",
			copyURL(u, "/api/todos"),
			encodeHTTPTaskIDRequest,
			decodeHTTPUpdateTaskResponse,
			options...,
		).Endpoint()
	}

	var deleteTaskEndpoint endpoint.Endpoint
	{
		deleteTaskEndpoint = httptransport.NewClient(
			"DELETE",
			copyURL(u, "/api/todos"),
			encodeHTTPTaskIDRequest,
			decodeHTTPDeleteTaskResponse,
			options...,
		).Endpoint()
	}

	var statsEndpoint endpoint.Endpoint
	{
		statsEndpoint = httptransport.NewClient(
			"GET",
			copyURL(u, "/api/stats"),
			encodeHTTPGenericRequest,
			decodeHTTPStatsResponse,
			options...,
		).Endpoint()
	}

	return todoendpoint.Set{
		CreateTaskEndpoint: createTaskEndpoint,
		TasksEndpoint:      tasksEndpoint,
		UpdateTaskEndpoint: updateTaskEndpoint,
		DeleteTaskEndpoint: deleteTaskEndpoint,
		StatsEndpoint:      statsEndpoint,
	}, nil
}

func copyURL(base *url.URL, path string) *url.URL {
	next := *base
	next.Path = path
	return &next
}

func errorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	code := err2code(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		// Internal details stay inside the process.
		msg = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorWrapper{Error: msg})
}

type errorWrapper struct {
	Error string `json:"error"`
}

func err2code(err error) int {
	switch err {
	case kitjwt.ErrTokenContextMissing:
		return http.StatusUnauthorized
	case kitjwt.ErrTokenInvalid, kitjwt.ErrTokenExpired, kitjwt.ErrTokenMalformed,
		kitjwt.ErrTokenNotActive, kitjwt.ErrUnexpectedSigningMethod,
		todosvc.ErrClaimsMissing, todosvc.ErrClaimsInvalid:
		return http.StatusForbidden
	case todosvc.ErrInvalidArgument, todosvc.ErrTitleRequired:
		return http.StatusBadRequest
	case todosvc.ErrTaskNotFound:
		return http.StatusNotFound
	}

	// Signature mismatches surface as raw validation errors.
	if _, ok := err.(*stdjwt.ValidationError); ok {
		return http.StatusForbidden
	}

	return http.StatusInternalServerError
}

func decodeHTTPCreateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req todoendpoint.CreateTaskRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, todosvc.ErrInvalidArgument
	}
	return req, nil
}

func decodeHTTPTasksRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return todoendpoint.TasksRequest{}, nil
}

func decodeHTTPUpdateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	taskID, err := strconv.ParseUint(vars["task_id"], 10, 64)
	if err != nil {
		return nil, ErrBadRouting
	}

	var req todoendpoint.UpdateTaskRequest

	// An empty body is a valid partial update that changes nothing.
	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil && err != io.EOF {
		return nil, todosvc.ErrInvalidArgument
	}

	req.TaskID = taskID

	return req, nil
}

func decodeHTTPDeleteTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	taskID, err := strconv.ParseUint(vars["task_id"], 10, 64)
	if err != nil {
		return nil, ErrBadRouting
	}

	return todoendpoint.DeleteTaskRequest{TaskID: taskID}, nil
}

func decodeHTTPStatsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return todoendpoint.StatsRequest{}, nil
}

// ErrBadRouting is returned when an expected path variable is missing.
// It always indicates programmer error.
var ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")

func decodeHTTPCreateTaskResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if err := errorFromResponse(r); err != nil {
		return nil, err
	}
	var resp todoendpoint.CreateTaskResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPTasksResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if err := errorFromResponse(r); err != nil {
		return nil, err
	}
	var resp todoendpoint.TasksResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPUpdateTaskResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if err := errorFromResponse(r); err != nil {
		return nil, err
	}
	var resp todoendpoint.UpdateTaskResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPDeleteTaskResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if err := errorFromResponse(r); err != nil {
		return nil, err
	}
	var resp todoendpoint.DeleteTaskResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPStatsResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if err := errorFromResponse(r); err != nil {
		return nil, err
	}
	var resp todoendpoint.StatsResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func errorFromResponse(r *http.Response) error {
	if r.StatusCode == http.StatusOK || r.StatusCode == http.StatusCreated {
		return nil
	}

	var wrapper errorWrapper
	if err := json.NewDecoder(r.Body).Decode(&wrapper); err == nil && wrapper.Error != "" {
		return errors.New(wrapper.Error)
	}

	return errors.New(r.Status)
}

// encodeHTTPGenericRequest is a transport/http.EncodeRequestFunc that
// JSON-encodes any request to the request body. Primarily useful in a client.
func encodeHTTPGenericRequest(_ context.Context, r *http.Request, request interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return err
	}
	r.Body = ioutil.NopCloser(&buf)
	return nil
}

// encodeHTTPTaskIDRequest appends the task id to the request path before
// JSON-encoding the body.
func encodeHTTPTaskIDRequest(ctx context.Context, r *http.Request, request interface{}) error {
	var taskID uint64
	switch req := request.(type) {
	case todoendpoint.UpdateTaskRequest:
		taskID = req.TaskID
	case todoendpoint.DeleteTaskRequest:
		taskID = req.TaskID
	default:
		return ErrBadRouting
	}

	r.URL.Path = fmt.Sprintf("%s/%d", r.URL.Path, taskID)

	return encodeHTTPGenericRequest(ctx, r, request)
}

// encodeHTTPGenericResponse is a transport/http.EncodeResponseFunc that encodes
// the response as JSON to the response writer. Primarily useful in a server.
func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if sc, ok := response.(statusCoder); ok {
		w.WriteHeader(sc.StatusCode())
	}
	return json.NewEncoder(w).Encode(response)
}

type statusCoder interface {
	StatusCode() int
}
