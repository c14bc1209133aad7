/*
Package handler provides the HTTP handlers and routing setup for the presence relay.

This file defines the main Router, applying logging, CORS and recovery middleware before
delegating to the health, presence and WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/tealtint-nt/WebRTCSample/internal/pkg/limiter"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/logx"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Presence Relay"

// Router sets up the HTTP routing table. The returned limiter must be stopped on shutdown.
func Router(deps *AppDeps) (http.Handler, *limiter.IPRateLimiter) {
	joinLimiter := limiter.NewIPRateLimiter(rate.Limit(deps.Config.JoinRate), deps.Config.JoinBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", HandleHealth(deps))

	r.Route("/api", func(api chi.Router) {
		api.Get("/users", HandleListUsers(deps))
		api.Get("/users/{connID}", HandleGetUser(deps))
	})

	r.With(joinLimiter.Middleware).Get("/ws", HandleWebSocket(wsUpgrader, deps))

	return r, joinLimiter
}
