package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/Veraticus/finbuddy/internal/assistant"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/tui"
	"github.com/spf13/cobra"
)

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	user, err := userFromFlag(cmd, store)
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	client, err := createLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	window := cfg.Assistant.Window()
	return tui.Run(ctx,
		tui.WithAssistant(assistant.New(client, slog.Default(), assistant.WithWindowDays(cfg.Assistant.WindowDays))),
		tui.WithSnapshot(func(ctx context.Context) ([]model.Transaction, []model.Goal, error) {
			return loadSnapshot(ctx, store, user.ID, window)
		}),
		tui.WithUserName(user.FullName),
	)
}
