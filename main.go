package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// a local .env is optional
	_ = godotenv.Load()

	logger := log.New(os.Stdout, "roomchat ", log.LstdFlags|log.Lmsgprefix)
	config := LoadConfig(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, config, logger); err != nil {
		logger.Fatalf("server exited with error: %v", err)
	}
}

// run serves chat and, when enabled, the HTTP API until ctx is cancelled or
// either server fails.
func run(ctx context.Context, config *Config, logger *log.Logger) error {
	history, err := OpenHistoryStore(config)
	if err != nil {
		return err
	}
	defer func() {
		if err := history.Close(); err != nil {
			logger.Printf("error closing history: %v", err)
		}
	}()

	metrics := NewMetrics()
	registry := NewRegistry(NumberOfRooms, config.SendTimeout, logger)
	chatServer := NewChatServer(config, registry, history, metrics, logger)
	if err := chatServer.Start(); err != nil {
		return err
	}

	var apiServer *ApiServer
	if config.ApiEnabled() {
		apiServer = NewApiServer(config, chatServer, metrics, logger)
		if err := apiServer.Listen(); err != nil {
			_ = chatServer.Stop(ctx)
			return err
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(chatServer.Serve)
	if apiServer != nil {
		group.Go(apiServer.Start)
	}
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if apiServer != nil {
			if err := apiServer.Stop(shutdownCtx); err != nil {
				logger.Printf("%v", err)
			}
		}
		return chatServer.Stop(shutdownCtx)
	})
	return group.Wait()
}
