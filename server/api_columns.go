package main

import (
	"net/http"
)

func (a *api) handleCreateColumn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title      *string `json:"title"`
		TaskListID *int64  `json:"task_list_id"`
	}
	if err := readJSON(w, r, &req); err != nil {
		a.log.Debug("decode create column", "err", err)
		writeError(w, 400, "invalid payload")
		return
	}
	title, err := titleOrDefault(req.Title, defaultColumnTitle, a.strict)
	if err != nil {
		a.fail(w, "create column", err)
		return
	}
	c, err := a.store.CreateColumn(r.Context(), title, req.TaskListID)
	if err != nil {
		a.fail(w, "create column", err)
		return
	}
	out := BoardColumn{Column: c, Tasks: []Task{}}
	writeJSON(w, 201, out)
	a.publish("column.created", "column", c.TaskListID, out)
}

func (a *api) handleUpdateColumn(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	var req struct {
		Title      *string    `json:"title"`
		Position   *int64     `json:"position"`
		TaskListID OptionalID `json:"task_list_id"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	before := a.listOfColumn(r.Context(), id)
	c, err := a.store.UpdateColumn(r.Context(), id, ColumnPatch{Title: req.Title, Position: req.Position, TaskListID: req.TaskListID})
	if err != nil {
		a.fail(w, "update column", err)
		return
	}
	out, err := LoadColumn(r.Context(), a.store, c.ID)
	if err != nil {
		a.fail(w, "load column", err)
		return
	}
	writeJSON(w, 200, out)
	a.publish("column.updated", "column", c.TaskListID, out)
	if !sameList(before, c.TaskListID) {
		a.publish("column.deleted", "column", before, map[string]any{"id": id})
	}
}

func (a *api) handleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	listID := a.listOfColumn(r.Context(), id)
	if err := a.store.DeleteColumn(r.Context(), id); err != nil {
		a.fail(w, "delete column", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	a.publish("column.deleted", "column", listID, map[string]any{"id": id})
}

func (a *api) handleReorderColumns(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderedIDs []int64 `json:"ordered_ids"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if err := a.store.ReorderColumns(r.Context(), req.OrderedIDs); err != nil {
		a.fail(w, "reorder columns", err)
		return
	}
	writeJSON(w, 200, map[string]any{"status": "ok"})
	if len(req.OrderedIDs) > 0 {
		a.publish("columns.reordered", "column", a.listOfColumn(r.Context(), req.OrderedIDs[0]), map[string]any{"ordered_ids": req.OrderedIDs})
	}
}

func sameList(x, y *int64) bool {
	if x == nil || y == nil {
		return x == y
	}
	return *x == *y
}
