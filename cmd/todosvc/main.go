package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/gorilla/mux"
	"github.com/itogami/todolist/backend/authsvc/pkg/authservice"
	"github.com/itogami/todolist/backend/todosvc"
	todogorm "github.com/itogami/todolist/backend/todosvc/db/gorm"
	todoinmem "github.com/itogami/todolist/backend/todosvc/inmem"
	"github.com/itogami/todolist/backend/todosvc/pkg/todoendpoint"
	"github.com/itogami/todolist/backend/todosvc/pkg/todoservice"
	"github.com/itogami/todolist/backend/todosvc/pkg/todotransport"
	"github.com/itogami/todolist/backend/usersvc"
	usergorm "github.com/itogami/todolist/backend/usersvc/db/gorm"
	userinmem "github.com/itogami/todolist/backend/usersvc/inmem"
	"github.com/itogami/todolist/backend/usersvc/pkg/userendpoint"
	"github.com/itogami/todolist/backend/usersvc/pkg/userservice"
	"github.com/itogami/todolist/backend/usersvc/pkg/usertransport"
	"github.com/oklog/oklog/pkg/group"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
)

func main() {
	fs := flag.NewFlagSet("todosvc", flag.ExitOnError)
	var (
		httpAddr = fs.String(
			"http.addr",
			getEnv("HTTP_ADDR", ":8000"),
			"HTTP (JSON) listen address",
		)
		databaseURL = fs.String(
			"database.url",
			getEnv("DATABASE_URL", ""),
			"Postgres URL; empty means a local sqlite file",
		)
		inmemStore = fs.Bool(
			"inmem",
			getEnvAsBool("INMEM_STORE", false),
			"keep all records in process memory instead of a database",
		)
		publicMode = fs.Bool(
			"public.mode",
			getEnvAsBool("PUBLIC_MODE", false),
			"serve the task routes without authentication",
		)
	)

	fs.Usage = usageFor(fs, os.Args[0]+" [flags]")
	fs.Parse(os.Args[1:])

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	var (
		taskRepository todosvc.TaskRepository
		userRepository usersvc.UserRepository
	)
	if *inmemStore {
		taskRepository = todoinmem.NewTaskRepository()
		userRepository = userinmem.NewUserRepository()
	} else {
		var db *libgorm.DB
		var err error
		{
			if *databaseURL != "" {
				db, err = libgorm.Open(postgres.Open(*databaseURL), &libgorm.Config{})
			} else {
				db, err = libgorm.Open(sqlite.Open("todolist.db"), &libgorm.Config{})
			}
			if err != nil {
				logger.Log("err", err)
				os.Exit(1)
			}
		}

		db.AutoMigrate(&todosvc.Task{}, &usersvc.User{})
		taskRepository = todogorm.NewTaskRepository(db)
		userRepository = usergorm.NewUserRepository(db)
	}

	var requestCount metrics.Counter
	{
		requestCount = kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: "todolist",
			Subsystem: "todosvc",
			Name:      "request_count",
			Help:      "Number of requests received.",
		}, []string{"method"})
	}
	var requestLatency metrics.Histogram
	{
		requestLatency = kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
			Namespace: "todolist",
			Subsystem: "todosvc",
			Name:      "request_latency_seconds",
			Help:      "Total duration of requests in seconds.",
		}, []string{"method"})
	}

	var todoService todoservice.Service
	{
		todoService = todoservice.New(taskRepository, logger)
		todoService = todoservice.InstrumentingMiddleware(requestCount, requestLatency)(todoService)
	}

	todoEndpoints := todoendpoint.New(todoService, logger)

	r := mux.NewRouter()
	if *publicMode {
		r.PathPrefix("/").Handler(todotransport.NewPublicHTTPHandler(todoEndpoints, logger))
	} else {
		tokenizer := authservice.NewTokenizer()
		userService := userservice.New(userRepository, tokenizer, logger)
		userEndpoints := userendpoint.New(userService, logger)
		userHTTPHandler := usertransport.NewHTTPHandler(userEndpoints, logger)

		r.PathPrefix("/api/register").Handler(userHTTPHandler)
		r.PathPrefix("/api/login").Handler(userHTTPHandler)
		r.PathPrefix("/").Handler(todotransport.NewHTTPHandler(todoEndpoints, logger))
	}

	var g group.Group
	{
		httpListener, err := net.Listen("tcp", *httpAddr)
		if err != nil {
			logger.Log("transport", "HTTP", "during", "Listen", "err", err)
			os.Exit(1)
		}
		g.Add(func() error {
			logger.Log("transport", "HTTP", "addr", *httpAddr, "public", *publicMode)
			return http.Serve(httpListener, r)
		}, func(error) {
			httpListener.Close()
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	logger.Log("exit", g.Run())
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	if v, err := strconv.ParseBool(value); err == nil {
		return v
	}
	return fallback
}
