// Package rest implements the minimal HTTP surface: health, out-of-band
// game creation, and read-only session introspection.
package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"trivianight/internal/game"
	"trivianight/internal/transport/ws"
)

// NewRouter builds the REST router and mounts the WebSocket upgrade route
// alongside it, so the whole server shares one HTTP port.
func NewRouter(registry *game.Registry, wsHandler *ws.Handler, clientURL string) http.Handler {
	r := mux.NewRouter()
	r.Use(corsMiddleware(clientURL))

	h := &handlers{registry: registry}

	r.HandleFunc("/health", h.health).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/games/create", h.createGame).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/games/{pin}", h.getGame).Methods("GET", "OPTIONS")
	r.HandleFunc("/ws", wsHandler.Serve).Methods("GET")

	return r
}

func corsMiddleware(clientURL string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", clientURL)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
