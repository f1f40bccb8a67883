package main

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/rs/cors"
)

func (a *api) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)

	mux.HandleFunc("GET /api/tasklists", a.handleListTaskLists)
	mux.HandleFunc("POST /api/tasklists", a.handleCreateTaskList)
	mux.HandleFunc("PUT /api/tasklists/{id}", a.handleUpdateTaskList)
	mux.HandleFunc("DELETE /api/tasklists/{id}", a.handleDeleteTaskList)

	// Board read; list_id is optional
	mux.HandleFunc("GET /api/columns", a.handleGetBoard)
	mux.HandleFunc("POST /api/columns", a.handleCreateColumn)
	mux.HandleFunc("POST /api/columns/reorder", a.handleReorderColumns)
	mux.HandleFunc("PUT /api/columns/{id}", a.handleUpdateColumn)
	mux.HandleFunc("DELETE /api/columns/{id}", a.handleDeleteColumn)

	mux.HandleFunc("GET /api/columns/{id}/tasks", a.handleTasksByColumn)
	mux.HandleFunc("POST /api/columns/{id}/tasks", a.handleCreateTask)
	mux.HandleFunc("POST /api/tasks/reorder", a.handleReorderTasks)
	mux.HandleFunc("PUT /api/tasks/{id}", a.handleUpdateTask)
	mux.HandleFunc("POST /api/tasks/{id}/toggle", a.handleToggleTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", a.handleDeleteTask)

	mux.HandleFunc("GET /api/events", a.handleBoardEvents)
	mux.HandleFunc("GET /api/ws", a.handleBoardSocket)

	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics.handler())
	}
}

// newHandler assembles the full HTTP stack: routes, optional static files,
// CORS and the access log.
func newHandler(cfg Config, st Store, log *slog.Logger, m *metrics, bus *EventBus) http.Handler {
	mux := http.NewServeMux()
	a := newAPI(st, log, m, bus, cfg.StrictValidation)
	a.routes(mux)
	if cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})
	return withLogging(log, m, c.Handler(mux))
}

// originChecker mirrors the CORS origin list for websocket upgrades.
func originChecker(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(origins, "*") {
			return true
		}
		return slices.Contains(origins, origin)
	}
}
