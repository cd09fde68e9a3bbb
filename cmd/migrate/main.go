// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/config"
	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/logging"
	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/persistence/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := logging.NewLogger(cfg.Env, cfg.LogLevel)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool, logger); err != nil {
		logger.Error("schema bootstrap failed", "error", err)
		os.Exit(1)
	}

	logger.Info("event log schema ready")
}
