package todoservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/itogami/todolist/backend/todosvc"
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

func (mw loggingMiddleware) CreateTask(ctx context.Context, a todosvc.Auth, title, description string, priority todosvc.Priority) (t todosvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "CreateTask",
			"user_id", a.UserID,
			"title", title,
			"priority", priority,
			"err", err,
		)
	}()
	return mw.next.CreateTask(ctx, a, title, description, priority)
}

func (mw loggingMiddleware) Tasks(ctx context.Context, a todosvc.Auth) (t []todosvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Tasks",
			"user_id", a.UserID,
			"err", err,
		)
	}()
	return mw.next.Tasks(ctx, a)
}

func (mw loggingMiddleware) UpdateTask(ctx context.Context, a todosvc.Auth, taskID uint64, update todosvc.TaskUpdate) (t todosvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "UpdateTask",
			"user_id", a.UserID,
			"task_id", taskID,
			"err", err,
		)
	}()
	return mw.next.UpdateTask(ctx, a, taskID, update)
}

func (mw loggingMiddleware) DeleteTask(ctx context.Context, a todosvc.Auth, taskID uint64) (err error) {
	defer func() {
		mw.logger.Log(
			"method", "DeleteTask",
			"user_id", a.UserID,
			"task_id", taskID,
			"err", err,
		)
	}()
	return mw.next.DeleteTask(ctx, a, taskID)
}

func (mw loggingMiddleware) Stats(ctx context.Context, a todosvc.Auth) (s todosvc.Stats, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Stats",
			"user_id", a.UserID,
			"err", err,
		)
	}()
	return mw.next.Stats(ctx, a)
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) CreateTask(ctx context.Context, a todosvc.Auth, title, description string, priority todosvc.Priority) (t todosvc.Task, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "create_task").Add(1)
		mw.requestLatency.With("method", "create_task").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.CreateTask(ctx, a, title, description, priority)
}

func (mw instrumentingMiddleware) Tasks(ctx context.Context, a todosvc.Auth) (t []todosvc.Task, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "tasks").Add(1)
		mw.requestLatency.With("method", "tasks").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Tasks(ctx, a)
}

func (mw instrumentingMiddleware) UpdateTask(ctx context.Context, a todosvc.Auth, taskID uint64, update todosvc.TaskUpdate) (t todosvc.Task, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "update_task").Add(1)
		mw.requestLatency.With("method", "update_task").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.UpdateTask(ctx, a, taskID, update)
}

func (mw instrumentingMiddleware) DeleteTask(ctx context.Context, a todosvc.Auth, taskID uint64) (err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "delete_task").Add(1)
		mw.requestLatency.With("method", "delete_task").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.DeleteTask(ctx, a, taskID)
}

func (mw instrumentingMiddleware) Stats(ctx context.Context, a todosvc.Auth) (s todosvc.Stats, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "stats").Add(1)
		mw.requestLatency.With("method", "stats").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Stats(ctx, a)
}
