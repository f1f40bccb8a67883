package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BSON dates carry millisecond precision.
const mongoTimePrecision = time.Millisecond

// MongoStore keeps one document per record in the tasklists, columns and
// tasks collections, addressed by the application id rather than _id.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	lists   *mongo.Collection
	columns *mongo.Collection
	tasks   *mongo.Collection
	now     func() time.Time
	mu      sync.Mutex
}

// OpenMongo connects to uri and uses the database named dbName.
func OpenMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	if dbName == "" {
		dbName = "tasklist"
	}
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(dbName)
	return &MongoStore{
		client:  client,
		db:      db,
		lists:   db.Collection("tasklists"),
		columns: db.Collection("columns"),
		tasks:   db.Collection("tasks"),
		now:     time.Now,
	}, nil
}

func (s *MongoStore) Migrate(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	if _, err := s.lists.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique}); err != nil {
		return fmt.Errorf("index tasklists: %w", err)
	}
	if _, err := s.columns.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "task_list_id", Value: 1}, {Key: "position", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("index columns: %w", err)
	}
	if _, err := s.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "column_id", Value: 1}, {Key: "position", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("index tasks: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) stamp(prev time.Time) time.Time { return stamp(s.now, mongoTimePrecision, prev) }

// maxField reads the highest value of field among documents matching filter.
func maxField(ctx context.Context, coll *mongo.Collection, filter bson.D, field string) (int64, bool, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: field, Value: -1}}).
		SetProjection(bson.D{{Key: field, Value: 1}, {Key: "_id", Value: 0}})
	var doc bson.M
	err := coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	switch v := doc[field].(type) {
	case int64:
		return v, true, nil
	case int32:
		return int64(v), true, nil
	case float64:
		return int64(v), true, nil
	default:
		return 0, false, nil
	}
}

func byID(id int64) bson.D { return bson.D{{Key: "id", Value: id}} }

func findSorted[T any](ctx context.Context, coll *mongo.Collection, filter bson.D, sort bson.D) ([]T, error) {
	cur, err := coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, id int64) (T, error) {
	var v T
	err := coll.FindOne(ctx, byID(id)).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return v, ErrNotFound
	}
	return v, err
}

var positionOrder = bson.D{{Key: "position", Value: 1}, {Key: "id", Value: 1}}

// Task lists

func (s *MongoStore) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	out, err := findSorted[TaskList](ctx, s.lists, bson.D{}, bson.D{{Key: "created_at", Value: 1}, {Key: "id", Value: 1}})
	if err != nil {
		return nil, fmt.Errorf("list tasklists: %w", err)
	}
	return out, nil
}

func (s *MongoStore) GetTaskList(ctx context.Context, id int64) (TaskList, error) {
	return findOne[TaskList](ctx, s.lists, id)
}

func (s *MongoStore) CreateTaskList(ctx context.Context, title string) (TaskList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maxID, found, err := maxField(ctx, s.lists, bson.D{}, "id")
	if err != nil {
		return TaskList{}, fmt.Errorf("next tasklist id: %w", err)
	}
	l := TaskList{ID: nextID(maxID, found), Title: title, CreatedAt: s.stamp(time.Time{})}
	if _, err := s.lists.InsertOne(ctx, l); err != nil {
		return TaskList{}, fmt.Errorf("insert tasklist: %w", err)
	}
	return l, nil
}

func (s *MongoStore) UpdateTaskList(ctx context.Context, id int64, title *string) (TaskList, error) {
	if title != nil {
		res, err := s.lists.UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: bson.D{{Key: "title", Value: *title}}}})
		if err != nil {
			return TaskList{}, fmt.Errorf("update tasklist: %w", err)
		}
		if res.MatchedCount == 0 {
			return TaskList{}, ErrNotFound
		}
	}
	return s.GetTaskList(ctx, id)
}

func (s *MongoStore) DeleteTaskList(ctx context.Context, id int64) error {
	cols, err := findSorted[Column](ctx, s.columns, bson.D{{Key: "task_list_id", Value: id}}, positionOrder)
	if err != nil {
		return fmt.Errorf("tasklist columns: %w", err)
	}
	colIDs := make([]int64, 0, len(cols))
	for _, c := range cols {
		colIDs = append(colIDs, c.ID)
	}
	if len(colIDs) > 0 {
		if _, err := s.tasks.DeleteMany(ctx, bson.D{{Key: "column_id", Value: bson.D{{Key: "$in", Value: colIDs}}}}); err != nil {
			return fmt.Errorf("delete tasklist tasks: %w", err)
		}
	}
	if _, err := s.columns.DeleteMany(ctx, bson.D{{Key: "task_list_id", Value: id}}); err != nil {
		return fmt.Errorf("delete tasklist columns: %w", err)
	}
	res, err := s.lists.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("delete tasklist: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Columns

func (s *MongoStore) ColumnsByList(ctx context.Context, listID *int64) ([]Column, error) {
	filter := bson.D{}
	if listID != nil {
		filter = bson.D{{Key: "task_list_id", Value: *listID}}
	}
	out, err := findSorted[Column](ctx, s.columns, filter, positionOrder)
	if err != nil {
		return nil, fmt.Errorf("columns by list: %w", err)
	}
	return out, nil
}

func (s *MongoStore) GetColumn(ctx context.Context, id int64) (Column, error) {
	return findOne[Column](ctx, s.columns, id)
}

func (s *MongoStore) CreateColumn(ctx context.Context, title string, listID *int64) (Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// a nil list id matches documents whose task_list_id is null
	maxPos, found, err := maxField(ctx, s.columns, bson.D{{Key: "task_list_id", Value: nullableID(listID)}}, "position")
	if err != nil {
		return Column{}, fmt.Errorf("next column position: %w", err)
	}
	maxID, idFound, err := maxField(ctx, s.columns, bson.D{}, "id")
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
	if _, err := s.columns.InsertOne(ctx, c); err != nil {
		return Column{}, fmt.Errorf("insert column: %w", err)
	}
	return c, nil
}

func (s *MongoStore) UpdateColumn(ctx context.Context, id int64, p ColumnPatch) (Column, error) {
	if p.empty() {
		return s.GetColumn(ctx, id)
	}
	set := bson.D{}
	if p.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *p.Title})
	}
	if p.Position != nil {
		set = append(set, bson.E{Key: "position", Value: *p.Position})
	}
	if p.TaskListID.Set {
		set = append(set, bson.E{Key: "task_list_id", Value: nullableID(p.TaskListID.Value)})
	}
	res, err := s.columns.UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return Column{}, fmt.Errorf("update column: %w", err)
	}
	if res.MatchedCount == 0 {
		return Column{}, ErrNotFound
	}
	return s.GetColumn(ctx, id)
}

func (s *MongoStore) DeleteColumn(ctx context.Context, id int64) error {
	if _, err := s.tasks.DeleteMany(ctx, bson.D{{Key: "column_id", Value: id}}); err != nil {
		return fmt.Errorf("delete column tasks: %w", err)
	}
	res, err := s.columns.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("delete column: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ReorderColumns(ctx context.Context, orderedIDs []int64) error {
	return rank(orderedIDs, func(id, pos int64) error {
		if _, err := s.columns.UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: bson.D{{Key: "position", Value: pos}}}}); err != nil {
			return fmt.Errorf("reorder column %d: %w", id, err)
		}
		return nil
	})
}

// Tasks

func (s *MongoStore) TasksByColumn(ctx context.Context, columnID int64) ([]Task, error) {
	out, err := findSorted[Task](ctx, s.tasks, bson.D{{Key: "column_id", Value: columnID}}, positionOrder)
	if err != nil {
		return nil, fmt.Errorf("tasks by column: %w", err)
	}
	return out, nil
}

func (s *MongoStore) GetTask(ctx context.Context, id int64) (Task, error) {
	return findOne[Task](ctx, s.tasks, id)
}

func (s *MongoStore) CreateTask(ctx context.Context, columnID int64, title, description string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maxPos, found, err := maxField(ctx, s.tasks, bson.D{{Key: "column_id", Value: columnID}}, "position")
	if err != nil {
		return Task{}, fmt.Errorf("next task position: %w", err)
	}
	maxID, idFound, err := maxField(ctx, s.tasks, bson.D{}, "id")
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
	if _, err := s.tasks.InsertOne(ctx, t); err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (s *MongoStore) UpdateTask(ctx context.Context, id int64, p TaskPatch) (Task, error) {
	prev, err := s.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	next := p.apply(prev)
	next.UpdatedAt = s.stamp(prev.UpdatedAt)

	set := bson.D{}
	if p.Title != nil {
		set = append(set, bson.E{Key: "title", Value: next.Title})
	}
	if p.Description != nil {
		set = append(set, bson.E{Key: "description", Value: next.Description})
	}
	if p.Completed != nil {
		set = append(set, bson.E{Key: "completed", Value: next.Completed})
	}
	if p.Position != nil {
		set = append(set, bson.E{Key: "position", Value: next.Position})
	}
	if p.ColumnID != nil {
		set = append(set, bson.E{Key: "column_id", Value: next.ColumnID})
	}
	set = append(set, bson.E{Key: "updated_at", Value: next.UpdatedAt})
	res, err := s.tasks.UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return Task{}, ErrNotFound
	}
	return next, nil
}

func (s *MongoStore) ToggleTask(ctx context.Context, id int64) (Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	t.Completed = !t.Completed
	t.UpdatedAt = s.stamp(t.UpdatedAt)
	res, err := s.tasks.UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: bson.D{
		{Key: "completed", Value: t.Completed},
		{Key: "updated_at", Value: t.UpdatedAt},
	}}})
	if err != nil {
		return Task{}, fmt.Errorf("toggle task: %w", err)
	}
	if res.MatchedCount == 0 {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (s *MongoStore) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.tasks.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ReorderTasks(ctx context.Context, changes []TaskOrder) error {
	for _, ch := range changes {
		now := s.stamp(time.Time{})
		err := rank(ch.OrderedIDs, func(id, pos int64) error {
			moved, err := s.tasks.UpdateOne(ctx,
				bson.D{{Key: "id", Value: id}, {Key: "column_id", Value: bson.D{{Key: "$ne", Value: ch.ColumnID}}}},
				bson.D{{Key: "$set", Value: bson.D{
					{Key: "column_id", Value: ch.ColumnID},
					{Key: "position", Value: pos},
					{Key: "updated_at", Value: now},
				}}})
			if err != nil {
				return fmt.Errorf("reorder task %d: %w", id, err)
			}
			if moved.MatchedCount > 0 {
				return nil
			}
			if _, err := s.tasks.UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: bson.D{{Key: "position", Value: pos}}}}); err != nil {
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
