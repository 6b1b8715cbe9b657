/*
Package main is the entry point for the voxpair server.

It loads configuration, initializes logging, wires the handshake and
translation services to their WebSocket endpoints and runs the three HTTP
listeners until SIGINT or SIGTERM, then shuts everything down in order.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"voxpair/internal/app/ai"
	"voxpair/internal/app/conn"
	"voxpair/internal/app/dispatch"
	"voxpair/internal/app/handshake"
	"voxpair/internal/app/history"
	"voxpair/internal/app/pipeline"
	"voxpair/internal/app/reaper"
	"voxpair/internal/app/schedule"
	"voxpair/internal/app/session"
	"voxpair/internal/app/storage"
	"voxpair/internal/configs"
	"voxpair/internal/handler"
	"voxpair/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Int("handshake_port", cfg.HandshakePort).
		Int("translation_port", cfg.TranslationPort).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("ai_provider", cfg.AIProvider).
		Bool("storage_enabled", cfg.StorageEnabled()).
		Bool("history_enabled", cfg.HistoryEnabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := ai.New(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to initialize AI provider")
	}
	orchestrator := pipeline.NewOrchestrator(provider, provider, provider)

	var audioStore storage.AudioStore
	if cfg.StorageEnabled() {
		audioStore, err = storage.NewAudioStore(ctx, storage.ConfigFrom(cfg))
		if err != nil {
			logx.Fatal(err, "Failed to initialize audio storage")
		}
	}

	var (
		pool          *pgxpool.Pool
		historyWriter *history.Writer
	)
	if cfg.HistoryEnabled() {
		pool, err = history.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to initialize history database")
		}
		historyWriter = history.NewWriter(history.NewPostgresStore(pool))
	}

	// Each listener has its own connection registry and scheduler.
	handshakeRegistry := conn.NewRegistry("handshake")
	translationRegistry := conn.NewRegistry("translation")
	embeddedRegistry := conn.NewRegistry("main")

	handshakeScheduler := schedule.New()
	translationScheduler := schedule.New()
	embeddedScheduler := schedule.New()

	rooms := handshake.NewService(handshakeRegistry, handshakeScheduler, cfg.HandshakeDelay)
	sessions := session.NewService(translationRegistry, translationScheduler)
	embeddedSessions := session.NewService(embeddedRegistry, embeddedScheduler)

	// A completed handshake seeds the translation session under the room id.
	rooms.OnComplete(func(room handshake.Room) {
		if room.Host == nil || room.Guest == nil {
			return
		}
		sessions.Pair(room.ID, *room.Host, *room.Guest)
	})

	deps := &handler.AppDeps{
		Config: cfg,
		Handshake: dispatch.New(dispatch.Deps{
			Name:     "handshake",
			Registry: handshakeRegistry,
			Rooms:    rooms,
			Features: dispatch.Features{Rooms: true},
		}),
		Translation: dispatch.New(dispatch.Deps{
			Name:            "translation",
			Registry:        translationRegistry,
			Sessions:        sessions,
			Pipeline:        orchestrator,
			Audio:           audioStore,
			History:         historyWriter,
			AudioReadyDelay: cfg.AudioReadyDelay,
			Features:        dispatch.Features{Sessions: true},
		}),
		Embedded: dispatch.New(dispatch.Deps{
			Name:            "main",
			Registry:        embeddedRegistry,
			Sessions:        embeddedSessions,
			Pipeline:        orchestrator,
			Audio:           audioStore,
			History:         historyWriter,
			AudioReadyDelay: cfg.AudioReadyDelay,
			Features:        dispatch.Features{Sessions: true, AutoTranslate: true},
		}),
		Rooms:            rooms,
		Sessions:         sessions,
		EmbeddedSessions: embeddedSessions,
		Pipeline:         orchestrator,
		StartedAt:        time.Now(),
	}

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	var reaperDone sync.WaitGroup
	reaperDone.Add(1)
	go func() {
		defer reaperDone.Done()
		reaper.Run(reaperCtx, cfg.ReaperInterval, cfg.IdleTTL, rooms, sessions, embeddedSessions)
	}()

	servers := []*http.Server{
		newServer(cfg.HandshakePort, handler.HandshakeRouter(deps)),
		newServer(cfg.TranslationPort, handler.TranslationRouter(deps)),
		newServer(cfg.Port, handler.Router(deps)),
	}
	names := []string{"handshake", "translation", "main"}

	for i, server := range servers {
		go func(name string, server *http.Server) {
			logx.Info(fmt.Sprintf("%s server starting on http://localhost%s", name, server.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logx.Fatal(err, "Server failed to start", "server", name)
			}
		}(names[i], server)
	}

	// Wait for interrupt signal to gracefully shutdown the servers with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	for i, server := range servers {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logx.Error(err, "Server forced to shutdown", "server", names[i])
		}
	}

	stopReaper()
	reaperDone.Wait()

	deps.Close()
	rooms.Shutdown()
	sessions.Shutdown()
	embeddedSessions.Shutdown()
	handshakeScheduler.Stop()
	translationScheduler.Stop()
	embeddedScheduler.Stop()

	if historyWriter != nil {
		if err := historyWriter.Close(shutdownCtx); err != nil {
			logx.Error(err, "History writer did not drain before shutdown")
		}
	}
	if pool != nil {
		pool.Close()
	}

	logx.Info("Server gracefully stopped.")
}

// newServer builds a listener. WebSocket connections are hijacked and are not
// subject to the read and write timeouts.
func newServer(port int, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
