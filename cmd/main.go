package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/partsbay/partsbay/internal/server"
	"github.com/partsbay/partsbay/pkg/utils"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found or error loading it", "error", err)
	}

	var handler slog.Handler

	logOptions := &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelInfo,
	}
	env := utils.GetEnv("GO_ENV", "development")
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, logOptions)
	} else {
		handler = slog.NewTextHandler(os.Stdout, logOptions)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("Initializing partsbay service...")

	srv := server.New()
	if err := srv.Run(); err != nil {
		slog.Error("server failed to run", "error", err)
		os.Exit(1)
	}
}
