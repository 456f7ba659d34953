package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ml-pipelines/internal/api"
	"ml-pipelines/internal/api/handler"
	"ml-pipelines/internal/components"
	"ml-pipelines/internal/config"
	"ml-pipelines/internal/publish"
	"ml-pipelines/internal/service"
	"ml-pipelines/internal/store"
	"ml-pipelines/pkg/logger"
)

// @title ML Pipelines API
// @version 1.0
// @description Compiles ML training pipeline definitions to Argo Workflows and renders deterministic dataset split queries.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "optional config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Missing pipeline settings only fail the affected requests.
	for _, check := range []func() error{cfg.RequireKFP, cfg.RequireTFX} {
		if err := check(); err != nil {
			logger.Warn("pipeline configuration incomplete", "error", err)
		}
	}

	if err := store.InitDB(cfg.DBPath); err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	pub, err := publish.New(publish.Config{
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UseSSL:          cfg.Storage.UseSSL,
		Bucket:          cfg.Storage.Bucket,
	})
	if err != nil {
		logger.Error("failed to create publisher", "error", err)
		os.Exit(1)
	}
	if !pub.Enabled() {
		logger.Info("publishing disabled, STORAGE_ENDPOINT not set")
	}

	svc := service.New(components.NewRegistry(cfg.ComponentOptions()), service.Options{
		TrainerImage:   cfg.TrainerImage,
		ServiceAccount: cfg.ServiceAccount,
		Environment:    cfg.Environment(),
	}, pub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := api.NewRouter(handler.New(svc))
	if err := r.Run(ctx, cfg.ServerAddr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
