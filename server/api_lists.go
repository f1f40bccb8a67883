package main

import (
	"net/http"
)

func (a *api) handleListTaskLists(w http.ResponseWriter, r *http.Request) {
	items, err := a.store.ListTaskLists(r.Context())
	if err != nil {
		a.fail(w, "list tasklists", err)
		return
	}
	if items == nil {
		items = []TaskList{}
	}
	writeJSON(w, 200, items)
}

func (a *api) handleCreateTaskList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title *string `json:"title"`
	}
	if err := readJSON(w, r, &req); err != nil {
		a.log.Debug("decode create tasklist", "err", err)
		writeError(w, 400, "invalid payload")
		return
	}
	title, err := titleOrDefault(req.Title, defaultListTitle, a.strict)
	if err != nil {
		a.fail(w, "create tasklist", err)
		return
	}
	l, err := a.store.CreateTaskList(r.Context(), title)
	if err != nil {
		a.fail(w, "create tasklist", err)
		return
	}
	writeJSON(w, 201, l)
	a.publish("tasklist.created", "tasklist", &l.ID, l)
}

func (a *api) handleUpdateTaskList(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	var req struct {
		Title *string `json:"title"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	l, err := a.store.UpdateTaskList(r.Context(), id, req.Title)
	if err != nil {
		a.fail(w, "update tasklist", err)
		return
	}
	writeJSON(w, 200, l)
	a.publish("tasklist.updated", "tasklist", &l.ID, l)
}

func (a *api) handleDeleteTaskList(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	if err := a.store.DeleteTaskList(r.Context(), id); err != nil {
		a.fail(w, "delete tasklist", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	a.publish("tasklist.deleted", "tasklist", &id, map[string]any{"id": id})
}
