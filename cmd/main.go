package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"batepapo/api"
	"batepapo/moderation"
	"batepapo/repositories"
	"batepapo/runtime/workers"
	"batepapo/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so deferred cleanups always execute before
// the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Core components
	mask, err := censorRune(config.CensorMask)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(config.CensoredWords, mask)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	participants := repositories.NewParticipantRepository(db)
	messages := repositories.NewMessageRepository(db)
	chatService := services.NewChatService(log, participants, messages, moderator, time.Now)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Eviction sweeper under supervision
	sweeper := workers.NewEvictionWorker(log, participants, messages, config.SweepInterval, config.IdleTimeout, time.Now)
	supervisor := workers.NewSupervisor(log).Add(sweeper)
	supervisorDone := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(supervisorDone)
	}()

	// 6. HTTP server
	health, err := api.NewHealthHandler(log)
	if err != nil {
		return fmt.Errorf("health handler setup failed: %w", err)
	}
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: api.NewRouter(log, chatService, health),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	supervisor.Stop()
	<-supervisorDone
	log.Info("Program stopped cleanly")

	return nil
}
