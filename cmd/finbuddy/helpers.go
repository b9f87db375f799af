package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/finbuddy/internal/classification"
	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/config"
	"github.com/Veraticus/finbuddy/internal/llm"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
	"github.com/Veraticus/finbuddy/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// loadConfig builds the validated configuration from flags, environment and file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// createLLMClient builds the configured model client. Commands that only need
// the rule table never call it, so they work without an API key.
func createLLMClient(ctx context.Context, cfg *config.Config) (*llm.Gateway, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	client, err := llm.NewClient(ctx, cfg.LLM, slog.Default())
	if err != nil {
		return nil, err
	}
	slog.Debug("LLM client ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	return client, nil
}

// loadRules returns the rule table from the --rules file, or the built-in table.
func loadRules() (*classification.RuleTable, error) {
	path := viper.GetString("classification.rules_file")
	if path == "" {
		return classification.DefaultRuleTable(), nil
	}

	f, err := os.Open(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer func() { _ = f.Close() }()

	table, err := classification.LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %s: %w", path, err)
	}
	return table, nil
}

// newCategorizer puts the rule table in front of client.
func newCategorizer(client llm.Client) (*classification.Categorizer, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, err
	}
	return classification.NewCategorizer(rules, client, slog.Default()), nil
}

// addUserFlag registers the --user flag shared by per-user commands.
func addUserFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "user email or ID (required)")
	_ = cmd.MarkFlagRequired("user")
}

// resolveUser looks a user up by email when ref contains @, by ID otherwise.
func resolveUser(ctx context.Context, store service.UserStore, ref string) (*model.User, error) {
	ref = strings.TrimSpace(ref)
	var (
		user *model.User
		err  error
	)
	if strings.Contains(ref, "@") {
		user, err = store.GetUserByEmail(ctx, strings.ToLower(ref))
	} else {
		user, err = store.GetUserByID(ctx, ref)
	}
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewUserError(
			fmt.Sprintf("no user %q, create one with 'finbuddy users create'", ref), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %q: %w", ref, err)
	}
	return user, nil
}

// userFromFlag resolves the --user flag of cmd.
func userFromFlag(cmd *cobra.Command, store service.UserStore) (*model.User, error) {
	ref, _ := cmd.Flags().GetString("user")
	return resolveUser(cmd.Context(), store, ref)
}

// loadSnapshot reads the user's transactions inside window, newest first, and all goals.
func loadSnapshot(ctx context.Context, store service.Storage, userID string, window time.Duration) ([]model.Transaction, []model.Goal, error) {
	since := time.Now().UTC().Add(-window)

	g, gctx := errgroup.WithContext(ctx)
	var txns []model.Transaction
	var goals []model.Goal
	g.Go(func() error {
		var err error
		txns, err = store.GetTransactions(gctx, service.TransactionFilter{UserID: userID, Since: &since})
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = store.GetGoals(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to load user data: %w", err)
	}
	return txns, goals, nil
}

// parseDay parses a YYYY-MM-DD flag value, returning nil for an empty one.
func parseDay(value, flag string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q (format: 2006-01-02): %w", flag, value, err)
	}
	return &t, nil
}
