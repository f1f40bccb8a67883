package main

import (
	"net/http"
)

// handleGetBoard returns the columns of ?list_id= with their tasks, or every
// column when list_id is absent.
func (a *api) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	listID, err := optionalListID(r)
	if err != nil {
		writeError(w, 400, "bad list_id")
		return
	}
	board, err := LoadBoard(r.Context(), a.store, listID)
	if err != nil {
		a.fail(w, "get board", err)
		return
	}
	writeJSON(w, 200, board)
}

func (a *api) handleBoardEvents(w http.ResponseWriter, r *http.Request) {
	listID, err := optionalListID(r)
	if err != nil {
		writeError(w, 400, "bad list_id")
		return
	}
	a.bus.ServeSSE(w, r, listID)
}

func (a *api) handleBoardSocket(w http.ResponseWriter, r *http.Request) {
	listID, err := optionalListID(r)
	if err != nil {
		writeError(w, 400, "bad list_id")
		return
	}
	if err := a.bus.ServeWS(w, r, listID); err != nil {
		// Upgrade has already written the error response.
		a.log.Debug("websocket upgrade", "err", err)
	}
}
