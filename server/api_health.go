package main

import (
	"context"
	"net/http"
	"time"
)

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	ts := time.Now().UTC().Format(time.RFC3339)
	if err := a.store.Ping(ctx); err != nil {
		a.log.Warn("health", "err", err)
		writeJSON(w, 503, map[string]any{"ok": false, "ts": ts, "error": "store unavailable"})
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "ts": ts})
}
