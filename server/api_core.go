package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type api struct {
	store   Store
	log     *slog.Logger
	bus     *EventBus
	metrics *metrics
	strict  bool
}

func newAPI(store Store, log *slog.Logger, m *metrics, bus *EventBus, strict bool) *api {
	return &api{store: store, log: log, bus: bus, metrics: m, strict: strict}
}

func parseID(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

// optionalListID reads the list_id query parameter; absent means all lists.
func optionalListID(r *http.Request) (*int64, error) {
	v := r.URL.Query().Get("list_id")
	if v == "" {
		return nil, nil
	}
	id, err := parseID(v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			// empty body: every field keeps its zero value
			return nil
		}
		return err
	}
	_, _ = io.Copy(io.Discard, r.Body)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// fail maps a store error onto the response. Only unexpected errors are logged.
func (a *api) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, 404, "not found")
	case errors.Is(err, ErrValidation):
		writeError(w, 400, err.Error())
	case errors.Is(err, context.Canceled):
		writeError(w, 499, "canceled")
	default:
		a.log.Error(op, "err", err)
		writeError(w, 500, "internal error")
	}
}

func (a *api) publish(typ, entity string, listID *int64, payload any) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(Event{Type: typ, Entity: entity, ListID: listID, Payload: payload})
}

// listOfColumn resolves the list a column belongs to for event routing.
func (a *api) listOfColumn(ctx context.Context, columnID int64) *int64 {
	c, err := a.store.GetColumn(ctx, columnID)
	if err != nil {
		return nil
	}
	return c.TaskListID
}

// withLogging logs one line per request and feeds the request metrics. The
// request is passed through unchanged so the mux can record its pattern.
func withLogging(log *slog.Logger, m *metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		sw := &statusWriter{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(sw, r)
		dur := time.Since(start)
		m.observeRequest(r.Method, r.Pattern, sw.status, dur)
		log.Info("http", "method", r.Method, "path", r.URL.Path, "status", sw.status, "dur_ms", dur.Milliseconds(), "request_id", reqID)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Flush is needed for SSE.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack is needed for websocket upgrades.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack unsupported")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
