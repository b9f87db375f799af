package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/finbuddy/internal/cli"
	"github.com/Veraticus/finbuddy/internal/config"
	"github.com/Veraticus/finbuddy/internal/engine"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Categorize pending transactions",
		Long: `Categorize every pending transaction: keyword rules first, then the AI
fallback for descriptions no rule matches. Transactions sharing a description
are categorized once.

Interrupting is safe; categorized rows are saved as they finish and the rest
stay pending for the next run.`,
		RunE: runCategorize,
	}

	cmd.Flags().StringP("user", "u", "", "only this user's transactions (email or ID)")
	cmd.Flags().String("since", "", "only transactions on or after this date (format: 2006-01-02)")
	cmd.Flags().Int("workers", 0, "concurrent model calls (default from categorize.workers)")
	_ = viper.BindPFlag("categorize.workers", cmd.Flags().Lookup("workers"))

	return cmd
}

func runCategorize(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	sinceFlag, _ := cmd.Flags().GetString("since")
	since, err := parseDay(sinceFlag, "since")
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var userID string
	if ref, _ := cmd.Flags().GetString("user"); ref != "" {
		user, err := resolveUser(ctx, store, ref)
		if err != nil {
			return err
		}
		userID = user.ID
	}

	return categorizeForUser(cmd, cfg, store, userID, since)
}

// categorizeForUser runs the engine over pending rows with a progress bar.
// An empty userID covers every user.
func categorizeForUser(cmd *cobra.Command, cfg *config.Config, store *storage.SQLiteStorage, userID string, since *time.Time) error {
	return runEngine(cmd, cfg, store, func(ctx context.Context, eng *engine.ClassificationEngine, opts engine.Options) (*engine.Summary, error) {
		opts.UserID = userID
		opts.Since = since
		return eng.CategorizePending(ctx, opts)
	})
}

// categorizeImported categorizes only the rows an import just stored.
func categorizeImported(cmd *cobra.Command, cfg *config.Config, store *storage.SQLiteStorage, transactions []model.Transaction) error {
	return runEngine(cmd, cfg, store, func(ctx context.Context, eng *engine.ClassificationEngine, opts engine.Options) (*engine.Summary, error) {
		return eng.Categorize(ctx, transactions, opts)
	})
}

type engineRun func(ctx context.Context, eng *engine.ClassificationEngine, opts engine.Options) (*engine.Summary, error)

func runEngine(cmd *cobra.Command, cfg *config.Config, store *storage.SQLiteStorage, run engineRun) error {
	out := cmd.OutOrStdout()

	client, err := createLLMClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	categorizer, err := newCategorizer(client)
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(out)
	ctx, stop := handler.HandleInterrupts(cmd.Context(), "categorization", "run 'finbuddy categorize' again to finish the pending transactions")
	defer stop()

	// Progress is reported under the engine's lock, so the lazy bar needs no guard.
	var progress *cli.Progress
	eng := engine.New(store, categorizer, slog.Default())
	summary, err := run(ctx, eng, engine.Options{
		Workers: cfg.Categorize.Workers,
		Progress: func(done, total int) {
			if progress == nil {
				progress = cli.NewProgress(out, total, "Categorizing")
			}
			progress.Update(done, total)
		},
	})
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		if handler.WasInterrupted() {
			fmt.Fprintln(out, cli.RenderCategorizeSummary(summary))
			return nil
		}
		return fmt.Errorf("categorization failed: %w", err)
	}

	fmt.Fprintln(out, cli.RenderCategorizeSummary(summary))
	return nil
}
