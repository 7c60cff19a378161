// Package server provides HTTP server initialization and lifecycle management
// for the CineMatch API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/popkes/cinematch/internal/config"
	"github.com/popkes/cinematch/internal/engine"
	"github.com/popkes/cinematch/internal/llm"
	"github.com/popkes/cinematch/internal/storage"
	"github.com/popkes/cinematch/web/handlers"
)

// httpShutdownTimeout bounds how long in-flight requests may run during
// graceful shutdown.
const httpShutdownTimeout = 5 * time.Second

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server. It returns the actual address
// being listened on (useful for testing with port 0) and the hub so callers
// can stop it on shutdown.
func Start(ctx context.Context, cfg *config.Config, store storage.CatalogStore, embedder llm.EmbeddingGenerator, generator llm.TextGenerator) (string, *handlers.WebSocketHub, error) {
	recommender := engine.NewRecommender(store, embedder, generator)

	hub := handlers.NewWebSocketHub()
	go hub.Run()

	// 10 req/sec sustained, burst of 20.
	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	api := handlers.NewAPIHandlers(recommender, store, embedder, hub)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/ingest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		api.Ingest(w, r)
	})
	apiMux.HandleFunc("/api/recommend", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		api.Recommend(w, r)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", api.Health)
	mux.Handle("/events", hub)
	mux.Handle("/api/", handlers.RateLimitMiddleware(handlers.RequireAuth(apiMux, cfg), rateLimiter))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		hub.Stop()
		return "", nil, fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: securityHeadersMiddleware(mux)}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
	}()

	return listener.Addr().String(), hub, nil
}
