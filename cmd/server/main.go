package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivianight/internal/config"
	"trivianight/internal/game"
	"trivianight/internal/janitor"
	"trivianight/internal/transport/rest"
	"trivianight/internal/transport/ws"
)

func main() {
	log.Println("started")

	cfg := config.Load()

	registry := game.NewRegistry()

	hub := ws.NewHub()
	log.Println("websocket hub started")

	dispatcher := ws.NewDispatcher(hub, registry)
	wsHandler := ws.NewHandler(hub, dispatcher)

	router := rest.NewRouter(registry, wsHandler, cfg.ClientURL)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go janitor.New(registry, cfg.JanitorInterval).Run(janitorCtx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("server starting on :%s", cfg.Port)
		log.Println("endpoints:")
		log.Println("  GET  /health")
		log.Println("  POST /api/games/create")
		log.Println("  GET  /api/games/{pin}")
		log.Println("  WS   /ws")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	stopJanitor()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown:", err)
	}

	log.Println("server exited")
}
