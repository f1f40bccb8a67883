package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

const sqlTimePrecision = time.Microsecond

// SQLStore keeps lists, columns and tasks in three tables of a postgres or
// sqlite database. Queries use ? placeholders and are rebound for postgres.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
	// mu serializes id and position allocation inside this process.
	mu sync.Mutex
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d, now: time.Now}
}

// OpenPostgres connects through the pgx driver and checks the connection.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLStore(db, dialectPostgres), nil
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		path = "tasklist.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+"_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time; rows are always drained before the next query
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return newSQLStore(db, dialectSQLite), nil
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for tests.
func (s *SQLStore) DB() *sql.DB { return s.db }

// q rebinds ? placeholders to $n for postgres.
func (s *SQLStore) q(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLStore) maxOf(ctx context.Context, query string, args ...any) (int64, bool, error) {
	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, s.q(query), args...).Scan(&n); err != nil {
		return 0, false, err
	}
	return n.Int64, n.Valid, nil
}

func (s *SQLStore) stamp(prev time.Time) time.Time { return stamp(s.now, sqlTimePrecision, prev) }

// Task lists

func (s *SQLStore) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	rows, err := s.db.QueryContext(ctx, `select id, title, created_at from tasklists order by created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list tasklists: %w", err)
	}
	defer rows.Close()
	out := []TaskList{}
	for rows.Next() {
		var l TaskList
		if err := rows.Scan(&l.ID, &l.Title, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.CreatedAt = l.CreatedAt.UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetTaskList(ctx context.Context, id int64) (TaskList, error) {
	var l TaskList
	err := s.db.QueryRowContext(ctx, s.q(`select id, title, created_at from tasklists where id=?`), id).
		Scan(&l.ID, &l.Title, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return TaskList{}, ErrNotFound
	}
	l.CreatedAt = l.CreatedAt.UTC()
	return l, err
}

func (s *SQLStore) CreateTaskList(ctx context.Context, title string) (TaskList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maxID, found, err := s.maxOf(ctx, `select max(id) from tasklists`)
	if err != nil {
		return TaskList{}, fmt.Errorf("next tasklist id: %w", err)
	}
	l := TaskList{ID: nextID(maxID, found), Title: title, CreatedAt: s.stamp(time.Time{})}
	if _, err := s.exec(ctx, `insert into tasklists(id, title, created_at) values(?,?,?)`, l.ID, l.Title, l.CreatedAt); err != nil {
		return TaskList{}, fmt.Errorf("insert tasklist: %w", err)
	}
	return l, nil
}

func (s *SQLStore) UpdateTaskList(ctx context.Context, id int64, title *string) (TaskList, error) {
	if title != nil {
		n, err := s.exec(ctx, `update tasklists set title=? where id=?`, *title, id)
		if err != nil {
			return TaskList{}, fmt.Errorf("update tasklist: %w", err)
		}
		if n == 0 {
			return TaskList{}, ErrNotFound
		}
	}
	return s.GetTaskList(ctx, id)
}

// DeleteTaskList removes the list's tasks, then its columns, then the list.
// Children are removed even when the list row itself is already gone.
func (s *SQLStore) DeleteTaskList(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `delete from tasks where column_id in (select id from board_columns where task_list_id=?)`, id); err != nil {
		return fmt.Errorf("delete tasklist tasks: %w", err)
	}
	if _, err := s.exec(ctx, `delete from board_columns where task_list_id=?`, id); err != nil {
		return fmt.Errorf("delete tasklist columns: %w", err)
	}
	n, err := s.exec(ctx, `delete from tasklists where id=?`, id)
	if err != nil {
		return fmt.Errorf("delete tasklist: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Columns

const columnCols = `id, title, position, created_at, task_list_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanColumn(sc rowScanner) (Column, error) {
	var c Column
	var listID sql.NullInt64
	if err := sc.Scan(&c.ID, &c.Title, &c.Position, &c.CreatedAt, &listID); err != nil {
		return Column{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	if listID.Valid {
		v := listID.Int64
		c.TaskListID = &v
	}
	return c, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func (s *SQLStore) ColumnsByList(ctx context.Context, listID *int64) ([]Column, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if listID == nil {
		rows, err = s.db.QueryContext(ctx, `select `+columnCols+` from board_columns order by position, id`)
	} else {
		rows, err = s.db.QueryContext(ctx, s.q(`select `+columnCols+` from board_columns where task_list_id=? order by position, id`), *listID)
	}
	if err != nil {
		return nil, fmt.Errorf("columns by list: %w", err)
	}
	defer rows.Close()
	out := []Column{}
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetColumn(ctx context.Context, id int64) (Column, error) {
	c, err := scanColumn(s.db.QueryRowContext(ctx, s.q(`select `+columnCols+` from board_columns where id=?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Column{}, ErrNotFound
	}
	return c, err
}

// CreateColumn appends the column after the last column sharing its list id;
// a nil list id groups with the other unassigned columns.
func (s *SQLStore) CreateColumn(ctx context.Context, title string, listID *int64) (Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		maxPos int64
		found  bool
		err    error
	)
	if listID == nil {
		maxPos, found, err = s.maxOf(ctx, `select max(position) from board_columns where task_list_id is null`)
	} else {
		maxPos, found, err = s.maxOf(ctx, `select max(position) from board_columns where task_list_id=?`, *listID)
	}
	if err != nil {
		return Column{}, fmt.Errorf("next column position: %w", err)
	}
	maxID, idFound, err := s.maxOf(ctx, `select max(id) from board_columns`)
	if err != nil {
		return Column{}, fmt.Errorf("next column id: %w", err)
	}
	c := Column{
		ID:         nextID(maxID, idFound),
		Title:      title,
		Position:   appendPosition(maxPos, found),
		CreatedAt:  s.stamp(time.Time{}),
		TaskListID: listID,
	}
	if _, err := s.exec(ctx, `insert into board_columns(id, title, position, created_at, task_list_id) values(?,?,?,?,?)`,
		c.ID, c.Title, c.Position, c.CreatedAt, nullableID(c.TaskListID)); err != nil {
		return Column{}, fmt.Errorf("insert column: %w", err)
	}
	return c, nil
}

func (s *SQLStore) UpdateColumn(ctx context.Context, id int64, p ColumnPatch) (Column, error) {
	if p.empty() {
		return s.GetColumn(ctx, id)
	}
	set := []string{}
	args := []any{}
	if p.Title != nil {
		set = append(set, "title=?")
		args = append(args, *p.Title)
	}
	if p.Position != nil {
		set = append(set, "position=?")
		args = append(args, *p.Position)
	}
	if p.TaskListID.Set {
		set = append(set, "task_list_id=?")
		args = append(args, nullableID(p.TaskListID.Value))
	}
	args = append(args, id)
	n, err := s.exec(ctx, "update board_columns set "+strings.Join(set, ", ")+" where id=?", args...)
	if err != nil {
		return Column{}, fmt.Errorf("update column: %w", err)
	}
	if n == 0 {
		return Column{}, ErrNotFound
	}
	return s.GetColumn(ctx, id)
}

func (s *SQLStore) DeleteColumn(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `delete from tasks where column_id=?`, id); err != nil {
		return fmt.Errorf("delete column tasks: %w", err)
	}
	n, err := s.exec(ctx, `delete from board_columns where id=?`, id)
	if err != nil {
		return fmt.Errorf("delete column: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ReorderColumns(ctx context.Context, orderedIDs []int64) error {
	return rank(orderedIDs, func(id, pos int64) error {
		if _, err := s.exec(ctx, `update board_columns set position=? where id=?`, pos, id); err != nil {
			return fmt.Errorf("reorder column %d: %w", id, err)
		}
		return nil
	})
}

// Tasks

const taskCols = `id, title, description, completed, position, column_id, created_at, updated_at`

func scanTask(sc rowScanner) (Task, error) {
	var t Task
	if err := sc.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.Position, &t.ColumnID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Task{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func (s *SQLStore) TasksByColumn(ctx context.Context, columnID int64) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`select `+taskCols+` from tasks where column_id=? order by position, id`), columnID)
	if err != nil {
		return nil, fmt.Errorf("tasks by column: %w", err)
	}
	defer rows.Close()
	out := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetTask(ctx context.Context, id int64) (Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, s.q(`select `+taskCols+` from tasks where id=?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return t, err
}

func (s *SQLStore) CreateTask(ctx context.Context, columnID int64, title, description string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maxPos, found, err := s.maxOf(ctx, `select max(position) from tasks where column_id=?`, columnID)
	if err != nil {
		return Task{}, fmt.Errorf("next task position: %w", err)
	}
	maxID, idFound, err := s.maxOf(ctx, `select max(id) from tasks`)
	if err != nil {
		return Task{}, fmt.Errorf("next task id: %w", err)
	}
	now := s.stamp(time.Time{})
	t := Task{
		ID:          nextID(maxID, idFound),
		Title:       title,
		Description: description,
		Position:    appendPosition(maxPos, found),
		ColumnID:    columnID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.exec(ctx,
		`insert into tasks(id, title, description, completed, position, column_id, created_at, updated_at) values(?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, t.Description, t.Completed, t.Position, t.ColumnID, t.CreatedAt, t.UpdatedAt); err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// UpdateTask merges the patch and always refreshes updated_at.
func (s *SQLStore) UpdateTask(ctx context.Context, id int64, p TaskPatch) (Task, error) {
	prev, err := s.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	next := p.apply(prev)
	next.UpdatedAt = s.stamp(prev.UpdatedAt)

	set := []string{}
	args := []any{}
	if p.Title != nil {
		set = append(set, "title=?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		set = append(set, "description=?")
		args = append(args, *p.Description)
	}
	if p.Completed != nil {
		set = append(set, "completed=?")
		args = append(args, *p.Completed)
	}
	if p.Position != nil {
		set = append(set, "position=?")
		args = append(args, *p.Position)
	}
	if p.ColumnID != nil {
		set = append(set, "column_id=?")
		args = append(args, *p.ColumnID)
	}
	set = append(set, "updated_at=?")
	args = append(args, next.UpdatedAt, id)
	n, err := s.exec(ctx, "update tasks set "+strings.Join(set, ", ")+" where id=?", args...)
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	if n == 0 {
		return Task{}, ErrNotFound
	}
	return next, nil
}

func (s *SQLStore) ToggleTask(ctx context.Context, id int64) (Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	t.Completed = !t.Completed
	t.UpdatedAt = s.stamp(t.UpdatedAt)
	n, err := s.exec(ctx, `update tasks set completed=?, updated_at=? where id=?`, t.Completed, t.UpdatedAt, id)
	if err != nil {
		return Task{}, fmt.Errorf("toggle task: %w", err)
	}
	if n == 0 {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (s *SQLStore) DeleteTask(ctx context.Context, id int64) error {
	n, err := s.exec(ctx, `delete from tasks where id=?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReorderTasks moves every listed task into its entry's column at its rank.
// Tasks that change column get a fresh updated_at.
func (s *SQLStore) ReorderTasks(ctx context.Context, changes []TaskOrder) error {
	for _, ch := range changes {
		now := s.stamp(time.Time{})
		err := rank(ch.OrderedIDs, func(id, pos int64) error {
			_, err := s.exec(ctx,
				`update tasks set updated_at = case when column_id <> ? then ? else updated_at end, column_id=?, position=? where id=?`,
				ch.ColumnID, now, ch.ColumnID, pos, id)
			if err != nil {
				return fmt.Errorf("reorder task %d: %w", id, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func schemaStatements(d dialect) []string {
	ts := "timestamptz"
	if d == dialectSQLite {
		ts = "timestamp"
	}
	return []string{
		`create table if not exists tasklists(
    id bigint primary key,
    title text not null default '',
    created_at ` + ts + ` not null
)`,
		`create table if not exists board_columns(
    id bigint primary key,
    title text not null default '',
    position bigint not null default 1,
    created_at ` + ts + ` not null,
    task_list_id bigint
)`,
		`create index if not exists board_columns_list_pos_idx on board_columns(task_list_id, position)`,
		`create table if not exists tasks(
    id bigint primary key,
    title text not null default '',
    description text not null default '',
    completed boolean not null default false,
    position bigint not null default 1,
    column_id bigint not null,
    created_at ` + ts + ` not null,
    updated_at ` + ts + ` not null
)`,
		`create index if not exists tasks_column_pos_idx on tasks(column_id, position)`,
	}
}
