package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"objectsrecognition/internal/app"
	"objectsrecognition/internal/config"
	"objectsrecognition/internal/logger"
)

func main() {
	envPath := flag.String("env", ".env", "Configuration file, also written by the configuration screen")
	flag.Parse()

	cfg := config.Load(*envPath)
	logger := logger.NewLogger(cfg)

	application, err := app.NewApp(cfg, logger, app.Options{EnvPath: *envPath})
	if err != nil {
		log.Fatalf("Failed to start client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := application.Run(ctx)
	if err := application.Close(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Client stopped: %v", runErr)
	}
}
