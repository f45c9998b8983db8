package rest

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"trivianight/internal/game"
	"trivianight/internal/model"
)

type handlers struct {
	registry *game.Registry
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"games":  h.registry.Count(),
	})
}

type createGameRequest struct {
	HostName string `json:"hostName"`
}

// createGame supports out-of-band game creation for callers that can't
// hold a transport connection open before they have a PIN to join — the
// session's host connection id is left empty until the first host:*
// event arrives over the transport and claims it.
func (h *handlers) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HostName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": model.ErrBadRequest.Error()})
		return
	}

	session, sessionID, err := h.registry.Create(req.HostName, "")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"gameId": sessionID,
		"pin":    session.PIN,
		"hostId": uuid.New().String(),
	})
}

func (h *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	pin := mux.Vars(r)["pin"]

	session, err := h.registry.Lookup(pin)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, session.Summary())
}
