package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"regsim/internal/config"
	"regsim/internal/container"
	"regsim/internal/ops"
	"regsim/ui"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	server, err := ui.NewServer(appContainer.SimulationService, ui.Options{
		GinMode:        appConfig.Server.GinMode,
		RequestTimeout: appConfig.Server.RequestTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	var opsServer *ops.Server
	if appConfig.Profiling.Enabled {
		opsServer = ops.NewServer()
		go func() {
			if err := opsServer.Start(":" + appConfig.Profiling.Port); err != nil {
				log.Printf("❌ pprof server failed: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Starting regsim server on port %s", appConfig.Server.Port)
		errCh <- server.Start(":" + appConfig.Server.Port)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if opsServer != nil {
		if err := opsServer.Shutdown(ctx); err != nil {
			log.Printf("pprof server shutdown error: %v", err)
		}
	}
}
