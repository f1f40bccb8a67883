package main

import (
	"net/http"
)

func (a *api) handleTasksByColumn(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	items, err := a.store.TasksByColumn(r.Context(), id)
	if err != nil {
		a.fail(w, "tasks by column", err)
		return
	}
	writeJSON(w, 200, nonNil(items))
}

func (a *api) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description string  `json:"description"`
	}
	if err := readJSON(w, r, &req); err != nil {
		a.log.Debug("decode create task", "err", err)
		writeError(w, 400, "invalid payload")
		return
	}
	title, err := titleOrDefault(req.Title, defaultTaskTitle, a.strict)
	if err != nil {
		a.fail(w, "create task", err)
		return
	}
	t, err := a.store.CreateTask(r.Context(), id, title, req.Description)
	if err != nil {
		a.fail(w, "create task", err)
		return
	}
	writeJSON(w, 201, t)
	a.publish("task.created", "task", a.listOfColumn(r.Context(), t.ColumnID), t)
}

func (a *api) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Completed   *bool   `json:"completed"`
		Position    *int64  `json:"position"`
		ColumnID    *int64  `json:"column_id"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	t, err := a.store.UpdateTask(r.Context(), id, TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Position:    req.Position,
		ColumnID:    req.ColumnID,
	})
	if err != nil {
		a.fail(w, "update task", err)
		return
	}
	writeJSON(w, 200, t)
	a.publish("task.updated", "task", a.listOfColumn(r.Context(), t.ColumnID), t)
}

func (a *api) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	t, err := a.store.ToggleTask(r.Context(), id)
	if err != nil {
		a.fail(w, "toggle task", err)
		return
	}
	writeJSON(w, 200, t)
	a.publish("task.toggled", "task", a.listOfColumn(r.Context(), t.ColumnID), t)
}

func (a *api) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	var listID *int64
	if t, err := a.store.GetTask(r.Context(), id); err == nil {
		listID = a.listOfColumn(r.Context(), t.ColumnID)
	}
	if err := a.store.DeleteTask(r.Context(), id); err != nil {
		a.fail(w, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	a.publish("task.deleted", "task", listID, map[string]any{"id": id})
}

func (a *api) handleReorderTasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Changes []TaskOrder `json:"changes"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if err := a.store.ReorderTasks(r.Context(), req.Changes); err != nil {
		a.fail(w, "reorder tasks", err)
		return
	}
	writeJSON(w, 200, map[string]any{"status": "ok"})
	if len(req.Changes) > 0 {
		a.publish("tasks.reordered", "task", a.listOfColumn(r.Context(), req.Changes[0].ColumnID), map[string]any{"changes": req.Changes})
	}
}
