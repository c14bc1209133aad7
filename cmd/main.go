/*
Package main is the entry point for the presence relay server.

It loads configuration, initializes the global logger, binds the listener, runs the
presence hub and the HTTP server side by side, and shuts both down on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tealtint-nt/WebRTCSample/internal/app/chat"
	"github.com/tealtint-nt/WebRTCSample/internal/configs"
	"github.com/tealtint-nt/WebRTCSample/internal/handler"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/logx"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/randx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logx.InitGlobalLogger(logx.Options{
		Development: cfg.IsDevelopment(),
		Level:       cfg.LogLevel,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("log_level", logx.Logger().GetLevel().String()).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("send_buffer", cfg.SendBuffer).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := chat.NewHub(randx.UUIDGenerator{}, time.Now)

	router, joinLimiter := handler.Router(&handler.AppDeps{
		Hub:    hub,
		Config: cfg,
	})
	defer joinLimiter.Stop()

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	listener, err := net.Listen("tcp", serverAddr)
	if err != nil {
		logx.Fatal(err, "Failed to bind listener", "addr", serverAddr)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run()
		return nil
	})

	g.Go(func() error {
		logx.Info(fmt.Sprintf("Presence relay listening on http://localhost%s", serverAddr))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logx.Info("Received shutdown signal. Starting graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		hub.Stop()
		<-hub.Done()

		if err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logx.Fatal(err, "Server stopped with error")
	}

	logx.Info("Server gracefully stopped.")
}
