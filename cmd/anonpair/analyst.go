package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"anonpair/backend/internal/analysis"
	"anonpair/backend/internal/config"
	"anonpair/backend/internal/localization"
	"anonpair/backend/internal/telegram"

	"github.com/spf13/cobra"
)

func runAnalyst(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.AnalystToken == "" {
		return errors.New("ANALYST_TOKEN is not set")
	}

	client, err := analysis.NewClient(analysis.ClientConfig{
		APIKey:      cfg.HFToken,
		BaseURL:     cfg.HFBaseURL,
		Model:       cfg.HFModel,
		MaxTokens:   config.AnalystMaxTokens,
		Temperature: config.AnalystTemperature,
		MaxRetries:  2,
	})
	if err != nil {
		return fmt.Errorf("HF_TOKEN: %w", err)
	}

	bot, err := telegram.NewBot(cfg.AnalystToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("INFO: analyst bot starting, model %s", cfg.HFModel)
	analysis.NewBot(bot, client, localization.Default(cfg.Language), cfg.Language).Run(ctx)
	return nil
}
