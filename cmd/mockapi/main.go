// Command mockapi runs the in-memory development backend on the port the
// TUI expects. It is a dev fixture only; nothing it stores survives restart.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/cucikilat/pos/internal/config"
	"github.com/cucikilat/pos/internal/mockapi"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	server := mockapi.NewServer(cfg.Mock.JWTSecret)

	addr := fmt.Sprintf(":%d", cfg.Mock.Port)
	slog.Info("starting mock backend", "addr", addr)

	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
