package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/finbuddy/internal/api"
	"github.com/Veraticus/finbuddy/internal/assistant"
	"github.com/Veraticus/finbuddy/internal/auth"
	"github.com/Veraticus/finbuddy/internal/engine"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the FinBuddy HTTP API: registration and login, transactions, CSV
upload, goals, FinBot chat and insights.

Requires a JWT secret (server.jwt_secret or JWT_SECRET) and an API key for the
configured LLM provider.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client, err := createLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	categorizer, err := newCategorizer(client)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenIssuer(cfg.Server.JWTSecret, cfg.Server.TokenTTL)
	if err != nil {
		return err
	}

	logger := slog.Default()
	server, err := api.NewServer(api.Deps{
		Store:          store,
		Categorizer:    categorizer,
		Engine:         engine.New(store, categorizer, logger),
		Assistant:      assistant.New(client, logger, assistant.WithWindowDays(cfg.Assistant.WindowDays)),
		Insights:       assistant.NewInsightGenerator(client, logger),
		Tokens:         tokens,
		Logger:         logger,
		Window:         cfg.Assistant.Window(),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	slog.Info("🚀 Starting FinBuddy API",
		"addr", cfg.Server.Addr,
		"database", cfg.Database.Path,
		"llm_provider", cfg.LLM.Provider,
		"window_days", cfg.Assistant.WindowDays)

	return server.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
}
