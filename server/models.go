package main

import (
	"bytes"
	"encoding/json"
	"time"
)

type TaskList struct {
	ID        int64     `json:"id" bson:"id"`
	Title     string    `json:"title" bson:"title"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Column is an ordered bucket of tasks. A nil TaskListID is the legacy
// unassigned bucket.
type Column struct {
	ID         int64     `json:"id" bson:"id"`
	Title      string    `json:"title" bson:"title"`
	Position   int64     `json:"position" bson:"position"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	TaskListID *int64    `json:"task_list_id" bson:"task_list_id"`
}

type Task struct {
	ID          int64     `json:"id" bson:"id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Completed   bool      `json:"completed" bson:"completed"`
	Position    int64     `json:"position" bson:"position"`
	ColumnID    int64     `json:"column_id" bson:"column_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// BoardColumn is a column carrying its tasks ordered by position.
type BoardColumn struct {
	Column
	Tasks []Task `json:"tasks"`
}

// TaskOrder is one entry of a cross-column task reorder: every listed task
// moves to ColumnID and takes its 1-based rank in OrderedIDs.
type TaskOrder struct {
	ColumnID   int64   `json:"column_id"`
	OrderedIDs []int64 `json:"ordered_ids"`
}

// OptionalID distinguishes an absent field from an explicit null.
type OptionalID struct {
	Set   bool
	Value *int64
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// ColumnPatch holds the fields of a partial column update; nil means unchanged.
type ColumnPatch struct {
	Title      *string
	Position   *int64
	TaskListID OptionalID
}

func (p ColumnPatch) empty() bool {
	return p.Title == nil && p.Position == nil && !p.TaskListID.Set
}

func (p ColumnPatch) apply(c Column) Column {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
	if p.TaskListID.Set {
		c.TaskListID = p.TaskListID.Value
	}
	return c
}

type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	Position    *int64
	ColumnID    *int64
}

func (p TaskPatch) apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.ColumnID != nil {
		t.ColumnID = *p.ColumnID
	}
	return t
}
