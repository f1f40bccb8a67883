package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// Placeholder titles substituted on create when the caller sends none.
const (
	defaultListTitle   = "TaskList"
	defaultColumnTitle = "New Column"
	defaultTaskTitle   = "New Task"
	seedListTitle      = "TaskList 1"
)

// Store is the persistence contract shared by every backend. Ids are
// allocated as max+1 per collection; columns and tasks are appended after
// their last sibling. Multi-record operations (cascades, reorders) are a
// sequence of independent writes.
type Store interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	ListTaskLists(ctx context.Context) ([]TaskList, error)
	GetTaskList(ctx context.Context, id int64) (TaskList, error)
	CreateTaskList(ctx context.Context, title string) (TaskList, error)
	UpdateTaskList(ctx context.Context, id int64, title *string) (TaskList, error)
	DeleteTaskList(ctx context.Context, id int64) error

	// ColumnsByList returns the columns of a list ordered by position, or
	// every column when listID is nil.
	ColumnsByList(ctx context.Context, listID *int64) ([]Column, error)
	GetColumn(ctx context.Context, id int64) (Column, error)
	CreateColumn(ctx context.Context, title string, listID *int64) (Column, error)
	UpdateColumn(ctx context.Context, id int64, p ColumnPatch) (Column, error)
	DeleteColumn(ctx context.Context, id int64) error
	ReorderColumns(ctx context.Context, orderedIDs []int64) error

	TasksByColumn(ctx context.Context, columnID int64) ([]Task, error)
	GetTask(ctx context.Context, id int64) (Task, error)
	CreateTask(ctx context.Context, columnID int64, title, description string) (Task, error)
	UpdateTask(ctx context.Context, id int64, p TaskPatch) (Task, error)
	ToggleTask(ctx context.Context, id int64) (Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ReorderTasks(ctx context.Context, changes []TaskOrder) error
}

// OpenStore connects the backend named by cfg.Driver and applies its schema.
func OpenStore(ctx context.Context, cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "postgres":
		st, err = OpenPostgres(ctx, cfg.DSN)
	case "sqlite":
		st, err = OpenSQLite(ctx, cfg.DSN)
	case "mongo":
		st, err = OpenMongo(ctx, cfg.DSN, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

// SeedDefaultList creates the first list when none exist.
func SeedDefaultList(ctx context.Context, st Store) (bool, error) {
	lists, err := st.ListTaskLists(ctx)
	if err != nil {
		return false, err
	}
	if len(lists) > 0 {
		return false, nil
	}
	if _, err := st.CreateTaskList(ctx, seedListTitle); err != nil {
		return false, err
	}
	return true, nil
}

// titleOrDefault resolves a create-time title. In strict mode a missing or
// blank title is rejected instead of replaced.
func titleOrDefault(title *string, def string, strict bool) (string, error) {
	if strict && (title == nil || strings.TrimSpace(*title) == "") {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	if title == nil {
		return def, nil
	}
	return *title, nil
}
