package main

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"testing"
)

// runStoreSuite checks the observable contract every backend shares. open
// must return an empty, migrated store.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	t.Helper()
	cases := []struct {
		name string
		fn   func(t *testing.T, st Store)
	}{
		{"AppendOrdering", testAppendOrdering},
		{"ReorderColumnsRewritesPositions", testReorderColumnsRewrites},
		{"CrossColumnTaskMove", testCrossColumnTaskMove},
		{"PartialReorderLeavesOmitted", testPartialReorderLeavesOmitted},
		{"DeleteListCascades", testDeleteListCascades},
		{"DeleteColumnCascades", testDeleteColumnCascades},
		{"ToggleTwice", testToggleTwice},
		{"IDsPerCollection", testIDsPerCollection},
		{"SprintScenario", testSprintScenario},
		{"PartialTaskUpdate", testPartialTaskUpdate},
		{"ColumnUpdateClearsList", testColumnUpdateClearsList},
		{"UnassignedColumnsShareOrdering", testUnassignedColumns},
		{"MissingRecords", testMissingRecords},
		{"OrphanCleanupOnMissingList", testOrphanCleanup},
		{"ListsSortedByCreation", testListsSorted},
		{"SeedDefaultList", testSeedDefaultList},
		{"ReorderTasksStampsMovedOnly", testReorderStampsMoved},
		{"ConcurrentCreatesGetUniqueIDs", testConcurrentCreates},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := open(t)
			tc.fn(t, st)
		})
	}
}

func mustList(t *testing.T, st Store, title string) TaskList {
	t.Helper()
	l, err := st.CreateTaskList(context.Background(), title)
	if err != nil {
		t.Fatalf("create list %q: %v", title, err)
	}
	return l
}

func mustColumn(t *testing.T, st Store, title string, listID *int64) Column {
	t.Helper()
	c, err := st.CreateColumn(context.Background(), title, listID)
	if err != nil {
		t.Fatalf("create column %q: %v", title, err)
	}
	return c
}

func mustTask(t *testing.T, st Store, columnID int64, title string) Task {
	t.Helper()
	tk, err := st.CreateTask(context.Background(), columnID, title, "")
	if err != nil {
		t.Fatalf("create task %q: %v", title, err)
	}
	return tk
}

func columnTitles(cols []Column) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Title)
	}
	return out
}

func testAppendOrdering(t *testing.T, st Store) {
	ctx := context.Background()
	l := mustList(t, st, "Board")
	for i, title := range []string{"a", "b", "c", "d"} {
		c := mustColumn(t, st, title, &l.ID)
		if c.Position != int64(i+1) {
			t.Fatalf("column %s: position %d want %d", title, c.Position, i+1)
		}
	}
	col := mustColumn(t, st, "tasks", &l.ID)
	for i := 1; i <= 3; i++ {
		tk := mustTask(t, st, col.ID, "t")
		if tk.Position != int64(i) {
			t.Fatalf("task %d: position %d", i, tk.Position)
		}
	}
	cols, err := st.ColumnsByList(ctx, &l.ID)
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	if got := columnTitles(cols); !slices.Equal(got, []string{"a", "b", "c", "d", "tasks"}) {
		t.Fatalf("order: %v", got)
	}
}

func testReorderColumnsRewrites(t *testing.T, st Store) {
	ctx := context.Background()
	l := mustList(t, st, "Board")
	a := mustColumn(t, st, "A", &l.ID)
	b := mustColumn(t, st, "B", &l.ID)
	c := mustColumn(t, st, "C", &l.ID)
	for id, pos := range map[int64]int64{a.ID: 5, b.ID: 2, c.ID: 9} {
		p := pos
		if _, err := st.UpdateColumn(ctx, id, ColumnPatch{Position: &p}); err != nil {
			t.Fatalf("set position: %v", err)
		}
	}
	if err := st.ReorderColumns(ctx, []int64{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	want := map[int64]int64{a.ID: 2, b.ID: 3, c.ID: 1}
	for id, pos := range want {
		got, err := st.GetColumn(ctx, id)
		if err != nil {
			t.Fatalf("get column: %v", err)
		}
		if got.Position != pos {
			t.Fatalf("column %s: position %d want %d", got.Title, got.Position, pos)
		}
	}
	board, err := LoadBoard(ctx, st, &l.ID)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	var titles []string
	for _, bc := range board {
		titles = append(titles, bc.Title)
	}
	if !slices.Equal(titles, []string{"C", "A", "B"}) {
		t.Fatalf("board order: %v", titles)
	}
}

func testPartialReorderLeavesOmitted(t *testing.T, st Store) {
	ctx := context.Background()
	l := mustList(t, st, "Board")
	a := mustColumn(t, st, "A", &l.ID)
	b := mustColumn(t, st, "B", &l.ID)
	c := mustColumn(t, st, "C", &l.ID)
	if err := st.ReorderColumns(ctx, []int64{c.ID, b.ID}); err != nil {
		t.Fatalf("reorder columns: %v", err)
	}
	for id, pos := range map[int64]int64{a.ID: 1, b.ID: 2, c.ID: 1} {
		got, err := st.GetColumn(ctx, id)
		if err != nil {
			t.Fatalf("get column: %v", err)
		}
		if got.Position != pos {
			t.Fatalf("column %s: position %d want %d", got.Title, got.Position, pos)
		}
	}
	// A and C tie on position 1; id breaks the tie
	cols, err := st.ColumnsByList(ctx, &l.ID)
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	if got := columnTitles(cols); !slices.Equal(got, []string{"A", "C", "B"}) {
		t.Fatalf("order: %v", got)
	}

	x := mustColumn(t, st, "X", &l.ID)
	t1 := mustTask(t, st, x.ID, "t1")
	t2 := mustTask(t, st, x.ID, "t2")
	t3 := mustTask(t, st, x.ID, "t3")
	if err := st.ReorderTasks(ctx, []TaskOrder{{ColumnID: x.ID, OrderedIDs: []int64{t3.ID, t2.ID}}}); err != nil {
		t.Fatalf("reorder tasks: %v", err)
	}
	tasks, err := st.TasksByColumn(ctx, x.ID)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	var got []int64
	for _, tk := range tasks {
		got = append(got, tk.ID, tk.Position)
	}
	if want := []int64{t1.ID, 1, t3.ID, 1, t2.ID, 2}; !slices.Equal(got, want) {
		t.Fatalf("tasks (id, position): %v want %v", got, want)
	}
}

func testCrossColumnTaskMove(t *testing.T, st Store) {
	ctx := context.Background()
	l := mustList(t, st, "Board")
	x := mustColumn(t, st, "X", &l.ID)
	y := mustColumn(t, st, "Y", &l.ID)
	x1 := mustTask(t, st, x.ID, "x1")
	x2 := mustTask(t, st, x.ID, "x2")
	x3 := mustTask(t, st, x.ID, "x3")
	y1 := mustTask(t, st, y.ID, "y1")

	err := st.ReorderTasks(ctx, []TaskOrder{
		{ColumnID: y.ID, OrderedIDs: []int64{y1.ID, x2.ID}},
		{ColumnID: x.ID, OrderedIDs: []int64{x3.ID, x1.ID}},
	})
	if err != nil {
		t.Fatalf("reorder tasks: %v", err)
	}
	moved, err := st.GetTask(ctx, x2.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if moved.ColumnID != y.ID || moved.Position != 2 {
		t.Fatalf("moved task: column %d position %d", moved.ColumnID, moved.Position)
	}
	xs, _ := st.TasksByColumn(ctx, x.ID)
	if len(xs) != 2 || xs[0].ID != x3.ID || xs[0].Position != 1 || xs[1].ID != x1.ID || xs[1].Position != 2 {
		t.Fatalf("source column not re-ranked: %+v", xs)
	}
	ys, _ := st.TasksByColumn(ctx, y.ID)
	if len(ys) != 2 || ys[0].ID != y1.ID || ys[1].ID != x2.ID {
		t.Fatalf("destination column: %+v", ys)
	}
}

func testDeleteListCascades(t *testing.T, st Store) {
	ctx := context.Background()
	l := mustList(t, st, "Doomed")
	keep := mustList(t, st, "Keep")
	c1 := mustColumn(t, st, "c1", &l.ID)
	c2 := mustColumn(t, st, "c2", &l.ID)
	t1 := mustTask(t, st, c1.ID, "t1")
	mustTask(t, st, c1.ID, "t2")
	mustTask(t, st, c2.ID, "t3")
	kc := mustColumn(t, st, "kept", &keep.ID)
	kt := mustTask(t, st, kc.ID, "kept task")

	if err := st.DeleteTaskList(ctx, l.ID); err != nil {
		t.Fatalf("delete list: %v", err)
	}
	board, err := LoadBoard(ctx, st, &l.ID)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if len(board) != 0 {
		t.Fatalf("expected empty board, got %d columns", len(board))
	}
	for _, id := range []int64{c1.ID, c2.ID} {
		if _, err := st.GetColumn(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("column %d survived: %v", id, err)
		}
	}
	if _, err := st.GetTask(ctx, t1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("task survived: %v", err)
	}
	for _, id := range []int64{c1.ID, c2.ID} {
		tasks, err := st.TasksByColumn(ctx, id)
		if err != nil || len(tasks) != 0 {
			t.Fatalf("tasks of deleted column %d: %v %v", id, tasks, err)
		}
	}
	if _, err := st.GetTask(ctx, kt.ID); err != nil {
		t.Fatalf("unrelated task removed: %v", err)
	}
	if _, err := st.GetTaskList(ctx, l.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("list survived: %v", err)
	}
}

func testDeleteColumnCascades(t *testing.T, st Store) {
	ctx := context.Background()
	l := mustList(t, st, "Board")
	a := mustColumn(t, st, "A", &l.ID)
	b := mustColumn(t, st, "B", &l.ID)
	mustTask(t, st, a.ID, "a1")
	mustTask(t, st, a.ID, "a2")
	bt := mustTask(t, st, b.ID, "b1")

	if err := st.DeleteColumn(ctx, a.ID); err != nil {
		t.Fatalf("delete column: %v", err)
	}
	if tasks, _ := st.TasksByColumn(ctx, a.ID); len(tasks) != 0 {
		t.Fatalf("tasks left behind: %+v", tasks)
	}
	if _, err := st.GetTask(ctx, bt.ID); err != nil {
		t.Fatalf("sibling column task removed: %v", err)
	}
	if err := st.DeleteColumn(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func testToggleTwice(t *testing.T, st Store) {
	ctx := context.Background()
	c := mustColumn(t, st, "c", nil)
	orig := mustTask(t, st, c.ID, "flip")

	once, err := st.ToggleTask(ctx, orig.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if once.Completed == orig.Completed {
		t.Fatal("first toggle did not flip")
	}
	if !once.UpdatedAt.After(orig.UpdatedAt) {
		t.Fatalf("updated_at %v not after %v", once.UpdatedAt, orig.UpdatedAt)
	}
	twice, err := st.ToggleTask(ctx, orig.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if twice.Completed != orig.Completed {
		t.Fatal("second toggle did not restore")
	}
	if !twice.UpdatedAt.After(once.UpdatedAt) {
		t.Fatalf("updated_at %v not after %v", twice.UpdatedAt, once.UpdatedAt)
	}
	stored, err := st.GetTask(ctx, orig.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Completed != orig.Completed || !stored.UpdatedAt.Equal(twice.UpdatedAt) {
		t.Fatalf("stored task differs: %+v vs %+v", stored, twice)
	}
}

func testIDsPerCollection(t *testing.T, st Store) {
	ctx := context.Background()
	l1 := mustList(t, st, "one")
	c := mustColumn(t, st, "c", &l1.ID)
	tk := mustTask(t, st, c.ID, "t")
	if err := st.DeleteTask(ctx, tk.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	l2 := mustList(t, st, "two")
	if l1.ID != 1 || l2.ID != 2 {
		t.Fatalf("list ids %d, %d", l1.ID, l2.ID)
	}
	if c.ID != 1 || tk.ID != 1 {
		t.Fatalf("first column/task ids %d, %d", c.ID, tk.ID)
	}
	// ids are max+1, so a freed top id is handed out again
	again := mustTask(t, st, c.ID, "again")
	if again.ID != 1 {
		t.Fatalf("task id after delete: %d", again.ID)
	}
}

func testSprintScenario(t *testing.T, st Store) {
	ctx := context.Background()
	sprint := mustList(t, st, "Sprint 1")
	todo := mustColumn(t, st, "Todo", &sprint.ID)
	doing := mustColumn(t, st, "Doing", &sprint.ID)
	done := mustColumn(t, st, "Done", &sprint.ID)
	if todo.Position != 1 || doing.Position != 2 || done.Position != 3 {
		t.Fatalf("positions %d %d %d", todo.Position, doing.Position, done.Position)
	}
	bug := mustTask(t, st, todo.ID, "Fix bug")
	if bug.Position != 1 {
		t.Fatalf("task position %d", bug.Position)
	}
	if err := st.ReorderTasks(ctx, []TaskOrder{{ColumnID: doing.ID, OrderedIDs: []int64{bug.ID}}}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	board, err := LoadBoard(ctx, st, &sprint.ID)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("columns: %d", len(board))
	}
	if len(board[0].Tasks) != 0 {
		t.Fatalf("Todo not empty: %+v", board[0].Tasks)
	}
	if len(board[1].Tasks) != 1 || board[1].Tasks[0].Title != "Fix bug" || board[1].Tasks[0].Position != 1 {
		t.Fatalf("Doing: %+v", board[1].Tasks)
	}
	if board[2].Tasks == nil {
		t.Fatal("Done tasks should be an empty slice")
	}
}

func testPartialTaskUpdate(t *testing.T, st Store) {
	ctx := context.Background()
	c := mustColumn(t, st, "c", nil)
	tk, err := st.CreateTask(ctx, c.ID, "title", "desc")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	desc := "new desc"
	got, err := st.UpdateTask(ctx, tk.ID, TaskPatch{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "title" || got.Description != desc || got.Completed || got.Position != tk.Position || got.ColumnID != c.ID {
		t.Fatalf("unexpected merge: %+v", got)
	}
	if !got.UpdatedAt.After(tk.UpdatedAt) {
		t.Fatal("updated_at not refreshed")
	}
	if !got.CreatedAt.Equal(tk.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", tk.CreatedAt, got.CreatedAt)
	}

	// an empty patch still refreshes updated_at
	same, err := st.UpdateTask(ctx, tk.ID, TaskPatch{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if !same.UpdatedAt.After(got.UpdatedAt) || same.Description != desc {
		t.Fatalf("empty patch: %+v", same)
	}
	stored, _ := st.GetTask(ctx, tk.ID)
	if stored.Description != desc || !stored.UpdatedAt.Equal(same.UpdatedAt) {
		t.Fatalf("stored: %+v", stored)
	}
}

func testColumnUpdateClearsList(t *testing.T, st Store) {
	ctx := context.Background()
	l := mustList(t, st, "Board")
	c := mustColumn(t, st, "c", &l.ID)

	title := "renamed"
	got, err := st.UpdateColumn(ctx, c.ID, ColumnPatch{Title: &title})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got.Title != title || got.TaskListID == nil || *got.TaskListID != l.ID {
		t.Fatalf("rename changed other fields: %+v", got)
	}
	got, err = st.UpdateColumn(ctx, c.ID, ColumnPatch{TaskListID: OptionalID{Set: true}})
	if err != nil {
		t.Fatalf("clear list: %v", err)
	}
	if got.TaskListID != nil || got.Title != title {
		t.Fatalf("expected unassigned column, got %+v", got)
	}
	if cols, _ := st.ColumnsByList(ctx, &l.ID); len(cols) != 0 {
		t.Fatalf("column still listed under list: %+v", cols)
	}
}

func testUnassignedColumns(t *testing.T, st Store) {
	ctx := context.Background()
	l := mustList(t, st, "Board")
	u1 := mustColumn(t, st, "u1", nil)
	inList := mustColumn(t, st, "in list", &l.ID)
	u2 := mustColumn(t, st, "u2", nil)
	if u1.Position != 1 || u2.Position != 2 || inList.Position != 1 {
		t.Fatalf("positions u1=%d u2=%d list=%d", u1.Position, u2.Position, inList.Position)
	}
	if u1.TaskListID != nil {
		t.Fatal("expected nil list id")
	}
	all, err := st.ColumnsByList(ctx, nil)
	if err != nil {
		t.Fatalf("all columns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected every column, got %d", len(all))
	}
}

func testMissingRecords(t *testing.T, st Store) {
	ctx := context.Background()
	title := "x"
	if _, err := st.ToggleTask(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("toggle missing: %v", err)
	}
	if _, err := st.UpdateTask(ctx, 999, TaskPatch{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing task: %v", err)
	}
	if err := st.DeleteTask(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing task: %v", err)
	}
	if _, err := st.UpdateColumn(ctx, 999, ColumnPatch{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing column: %v", err)
	}
	if _, err := st.UpdateTaskList(ctx, 999, &title); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing list: %v", err)
	}
	if _, err := st.GetTaskList(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing list: %v", err)
	}
	if err := st.DeleteTaskList(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing list: %v", err)
	}
	tasks, err := st.TasksByColumn(ctx, 999)
	if err != nil || len(tasks) != 0 {
		t.Fatalf("tasks of missing column: %v %v", tasks, err)
	}
	board, err := LoadBoard(ctx, st, ptr(int64(999)))
	if err != nil || len(board) != 0 {
		t.Fatalf("board of missing list: %v %v", board, err)
	}
}

func testOrphanCleanup(t *testing.T, st Store) {
	ctx := context.Background()
	ghost := int64(77)
	c := mustColumn(t, st, "orphan", &ghost)
	mustTask(t, st, c.ID, "orphan task")

	if err := st.DeleteTaskList(ctx, ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := st.GetColumn(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("orphan column survived: %v", err)
	}
	if tasks, _ := st.TasksByColumn(ctx, c.ID); len(tasks) != 0 {
		t.Fatalf("orphan tasks survived: %+v", tasks)
	}
}

func testListsSorted(t *testing.T, st Store) {
	ctx := context.Background()
	for _, title := range []string{"first", "second", "third"} {
		mustList(t, st, title)
	}
	lists, err := st.ListTaskLists(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lists) != 3 {
		t.Fatalf("expected 3 lists, got %d", len(lists))
	}
	if !sort.SliceIsSorted(lists, func(i, j int) bool {
		if lists[i].CreatedAt.Equal(lists[j].CreatedAt) {
			return lists[i].ID < lists[j].ID
		}
		return lists[i].CreatedAt.Before(lists[j].CreatedAt)
	}) {
		t.Fatalf("not sorted: %+v", lists)
	}
	if lists[0].Title != "first" || lists[2].Title != "third" {
		t.Fatalf("order: %+v", lists)
	}
	renamed := "renamed"
	got, err := st.UpdateTaskList(ctx, lists[1].ID, &renamed)
	if err != nil || got.Title != renamed || !got.CreatedAt.Equal(lists[1].CreatedAt) {
		t.Fatalf("update list: %+v %v", got, err)
	}
}

func testSeedDefaultList(t *testing.T, st Store) {
	ctx := context.Background()
	seeded, err := SeedDefaultList(ctx, st)
	if err != nil || !seeded {
		t.Fatalf("first seed: %v %v", seeded, err)
	}
	seeded, err = SeedDefaultList(ctx, st)
	if err != nil || seeded {
		t.Fatalf("second seed: %v %v", seeded, err)
	}
	lists, _ := st.ListTaskLists(ctx)
	if len(lists) != 1 || lists[0].ID != 1 || lists[0].Title != seedListTitle {
		t.Fatalf("lists: %+v", lists)
	}
}

func testReorderStampsMoved(t *testing.T, st Store) {
	ctx := context.Background()
	a := mustColumn(t, st, "a", nil)
	b := mustColumn(t, st, "b", nil)
	stay := mustTask(t, st, a.ID, "stay")
	move := mustTask(t, st, a.ID, "move")

	if err := st.ReorderTasks(ctx, []TaskOrder{
		{ColumnID: a.ID, OrderedIDs: []int64{stay.ID}},
		{ColumnID: b.ID, OrderedIDs: []int64{move.ID}},
	}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	gotStay, _ := st.GetTask(ctx, stay.ID)
	gotMove, _ := st.GetTask(ctx, move.ID)
	if !gotStay.UpdatedAt.Equal(stay.UpdatedAt) {
		t.Fatalf("unmoved task restamped: %v -> %v", stay.UpdatedAt, gotStay.UpdatedAt)
	}
	if gotMove.ColumnID != b.ID || gotMove.Position != 1 {
		t.Fatalf("moved task: %+v", gotMove)
	}
	if gotMove.UpdatedAt.Before(move.UpdatedAt) {
		t.Fatalf("moved task updated_at went backwards: %v -> %v", move.UpdatedAt, gotMove.UpdatedAt)
	}
}

func testConcurrentCreates(t *testing.T, st Store) {
	ctx := context.Background()
	c := mustColumn(t, st, "busy", nil)
	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  = map[int64]bool{}
		pos  = map[int64]bool{}
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tk, err := st.CreateTask(ctx, c.ID, "t", "")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids[tk.ID] = true
			pos[tk.Position] = true
		}()
	}
	wg.Wait()
	if len(errs) > 0 {
		t.Fatalf("create errors: %v", errs)
	}
	if len(ids) != n || len(pos) != n {
		t.Fatalf("expected %d unique ids and positions, got %d and %d", n, len(ids), len(pos))
	}
	for i := int64(1); i <= n; i++ {
		if !pos[i] {
			t.Fatalf("position %d missing", i)
		}
	}
}

func ptr[T any](v T) *T { return &v }
