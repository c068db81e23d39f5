package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/pulse-news/internal/app"
	"github.com/samvad-hq/pulse-news/internal/config"
	"github.com/samvad-hq/pulse-news/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pulse start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("pulse starting", "config", map[string]any{
		"app_env":       cfg.Env,
		"http_addr":     cfg.HTTPAddr,
		"storage_type":  cfg.StorageType,
		"id_scheme":     cfg.IDScheme,
		"news_language": cfg.NewsLanguage,
		"api_key_set":   cfg.NewsAPIAccessKey != "",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader, err := app.NewReader(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize reader", "error", err.Error())
		return err
	}

	if err := reader.Run(ctx); err != nil {
		return fmt.Errorf("reader run: %w", err)
	}
	return nil
}
