package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.BypassAuth {
		log.Printf("warning: BYPASS_AUTH is enabled, every request is treated as user %s", middleware.BypassUserID)
	}

	sessionManager := tetris.NewSessionManager(cfg.GameSettings())
	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.BypassAuth)

	gameHandler := handlers.NewGameHandler(sessionManager, auth, cfg.AllowedOrigins)
	publicHandler := handlers.NewPublicHandler(sessionManager)
	router := handlers.NewRouter(gameHandler, publicHandler, auth, cfg.AllowedOrigins)

	// WebSocket は長時間接続なので WriteTimeout は設定しない
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// アイドルセッションの定期削除
	go sessionManager.MaintainSessions(ctx, cfg.SessionSweepInterval, cfg.SessionIdleTimeout)

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	sessionManager.Shutdown()
	log.Println("Server stopped gracefully")
}
