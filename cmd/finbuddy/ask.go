package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/finbuddy/internal/assistant"
	"github.com/Veraticus/finbuddy/internal/cli"
	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask FinBot one question",
		Long: `Ask FinBot a question about your recent spending, goals, budget or ways to
save. FinBot sees the transactions inside assistant.window_days and all goals.`,
		Example: `  finbuddy ask --user asha@example.com "How much did I spend on food?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    runAsk,
	}
	addUserFlag(cmd)
	cmd.Flags().Bool("json", false, "Print the raw reply envelope as JSON")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("%w: question is empty", common.ErrInvalidInput)
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

	user, err := userFromFlag(cmd, store)
	if err != nil {
		return err
	}

	client, err := createLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	txns, goals, err := loadSnapshot(ctx, store, user.ID, cfg.Assistant.Window())
	if err != nil {
		return err
	}

	env := assistant.New(client, slog.Default(), assistant.WithWindowDays(cfg.Assistant.WindowDays)).Query(ctx, question, txns, goals)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), env)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderEnvelope(env))
	return nil
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with FinBot in the terminal",
		Long: `Open an interactive chat with FinBot. Each question is answered over the
latest data, so imports made while chatting are picked up.`,
		RunE: runChat,
	}
	addUserFlag(cmd)
	return cmd
}

func insightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show short observations about recent spending",
		RunE:  runInsights,
	}
	addUserFlag(cmd)
	return cmd
}

func runInsights(cmd *cobra.Command, _ []string) error {
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

	client, err := createLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	txns, _, err := loadSnapshot(ctx, store, user.ID, cfg.Assistant.Window())
	if err != nil {
		return err
	}

	insights := assistant.NewInsightGenerator(client, slog.Default()).Generate(ctx, txns)
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderInsights(insights))
	return nil
}
