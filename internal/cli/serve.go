package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"safecalc/internal/server"
	"safecalc/pkg/logger"
)

// HandleServe runs the HTTP service until SIGINT or SIGTERM.
func HandleServe(args []string) {
	cfg := loadConfig()
	logger.Setup(cfg.Env)
	slog.Info("Starting safecalc...", "env", cfg.Env, "version", Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg).ListenAndServe(ctx); err != nil {
		slog.Error("❌ Listen failed", "error", err, "addr", cfg.Addr)
		os.Exit(1)
	}
}
