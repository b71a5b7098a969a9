// @title           Niplan Auth API
// @version         1.0
// @description     Phone-based registration, legacy password setup and login for Niplan vendors.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"niplan/internal/app"
	"niplan/internal/config"
	"niplan/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (defaults to NIPLAN_CONFIG or config/config.yaml)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("[app] startup failed", zap.Error(err))
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error("[app] server stopped", zap.Error(err))
	}
}
