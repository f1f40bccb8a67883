package main

import (
	"context"
	"fmt"
)

// BoardReader is the read side the board aggregation needs.
type BoardReader interface {
	ColumnsByList(ctx context.Context, listID *int64) ([]Column, error)
	GetColumn(ctx context.Context, id int64) (Column, error)
	TasksByColumn(ctx context.Context, columnID int64) ([]Task, error)
}

// LoadBoard returns the columns of listID (all columns when nil) ordered by
// position, each carrying its tasks ordered by position. An unknown list
// yields an empty board.
func LoadBoard(ctx context.Context, r BoardReader, listID *int64) ([]BoardColumn, error) {
	cols, err := r.ColumnsByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	out := make([]BoardColumn, 0, len(cols))
	for _, c := range cols {
		tasks, err := r.TasksByColumn(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("tasks of column %d: %w", c.ID, err)
		}
		out = append(out, BoardColumn{Column: c, Tasks: nonNil(tasks)})
	}
	return out, nil
}

// LoadColumn returns one column with its ordered tasks.
func LoadColumn(ctx context.Context, r BoardReader, id int64) (BoardColumn, error) {
	c, err := r.GetColumn(ctx, id)
	if err != nil {
		return BoardColumn{}, err
	}
	tasks, err := r.TasksByColumn(ctx, id)
	if err != nil {
		return BoardColumn{}, fmt.Errorf("tasks of column %d: %w", id, err)
	}
	return BoardColumn{Column: c, Tasks: nonNil(tasks)}, nil
}

func nonNil(tasks []Task) []Task {
	if tasks == nil {
		return []Task{}
	}
	return tasks
}
