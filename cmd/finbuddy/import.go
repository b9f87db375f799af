package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/finbuddy/internal/cli"
	"github.com/Veraticus/finbuddy/internal/config"
	"github.com/Veraticus/finbuddy/internal/csvimport"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/ofx"
	"github.com/Veraticus/finbuddy/internal/plaid"
	"github.com/Veraticus/finbuddy/internal/storage"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from CSV, OFX or Plaid",
		Long: `Import transactions into a user's account. Imported rows start out pending;
pass --categorize to categorize them right away, or run "finbuddy categorize" later.

OFX and Plaid rows carry the bank's transaction ID, so importing the same
statement twice does not duplicate them.`,
	}

	cmd.PersistentFlags().Bool("categorize", false, "Categorize the imported transactions afterwards")
	cmd.PersistentFlags().Bool("dry-run", false, "Show what would be imported without saving")

	cmd.AddCommand(importCSVCmd())
	cmd.AddCommand(importOFXCmd())
	cmd.AddCommand(importPlaidCmd())
	return cmd
}

func importCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv <file>",
		Short: "Import a CSV file with date, description and amount columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFileImport(cmd, args[0], func(_ context.Context, userID string, f *os.File) ([]model.Transaction, error) {
				result, err := csvimport.NewImporter(slog.Default()).Parse(userID, f)
				if err != nil {
					return nil, err
				}
				if result.Skipped > 0 {
					slog.Warn("Skipped unusable CSV rows", "count", result.Skipped)
				}
				return result.Transactions, nil
			})
		},
	}
	addUserFlag(cmd)
	return cmd
}

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ofx <file>",
		Short: "Import an OFX or QFX bank statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFileImport(cmd, args[0], func(ctx context.Context, userID string, f *os.File) ([]model.Transaction, error) {
				return ofx.NewParser(slog.Default()).Parse(ctx, userID, f)
			})
		},
	}
	addUserFlag(cmd)
	return cmd
}

type fileParser func(ctx context.Context, userID string, f *os.File) ([]model.Transaction, error)

func runFileImport(cmd *cobra.Command, path string, parse fileParser) error {
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

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	slog.Info(cli.FormatTitle("Importing " + filepath.Base(path)))
	transactions, err := parse(ctx, user.ID, f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return saveImported(cmd, cfg, store, user, transactions)
}

func importPlaidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plaid",
		Short: "Import transactions from a linked Plaid account",
		Long: `Fetch transactions from Plaid for the configured access token.

Requires plaid.client_id, plaid.secret and plaid.access_token (or PLAID_CLIENT_ID,
PLAID_SECRET and PLAID_ACCESS_TOKEN).`,
		RunE: runImportPlaid,
	}

	cmd.Flags().StringP("start-date", "s", "", "Start date for transaction import (format: 2006-01-02)")
	cmd.Flags().StringP("end-date", "e", "", "End date for transaction import (format: 2006-01-02)")
	cmd.Flags().IntP("days", "d", 30, "Number of days to import (used if start date not specified)")
	addUserFlag(cmd)

	return cmd
}

func runImportPlaid(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	startDate, endDate, err := plaidDateRange(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := plaid.NewClient(plaid.Config{
		ClientID:    cfg.Plaid.ClientID,
		Secret:      cfg.Plaid.Secret,
		Environment: cfg.Plaid.Environment,
		AccessToken: cfg.Plaid.AccessToken,
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create Plaid client: %w", err)
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

	slog.Info(cli.FormatTitle("Importing transactions from Plaid"))
	slog.Info("Date range", "start", startDate.Format("2006-01-02"), "end", endDate.Format("2006-01-02"))

	transactions, err := client.FetchTransactions(ctx, user.ID, startDate, endDate)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}
	slog.Info(cli.FormatSuccess(fmt.Sprintf("Fetched %d transactions", len(transactions))))

	return saveImported(cmd, cfg, store, user, transactions)
}

func plaidDateRange(cmd *cobra.Command) (time.Time, time.Time, error) {
	startFlag, _ := cmd.Flags().GetString("start-date")
	endFlag, _ := cmd.Flags().GetString("end-date")
	days, _ := cmd.Flags().GetInt("days")

	end := time.Now().UTC()
	if parsed, err := parseDay(endFlag, "end-date"); err != nil {
		return time.Time{}, time.Time{}, err
	} else if parsed != nil {
		end = *parsed
	}

	if days <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("--days must be positive, got %d", days)
	}
	start := end.AddDate(0, 0, -days)
	if parsed, err := parseDay(startFlag, "start-date"); err != nil {
		return time.Time{}, time.Time{}, err
	} else if parsed != nil {
		start = *parsed
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return start, end, nil
}

// saveImported stores parsed rows and, when asked, categorizes them.
func saveImported(cmd *cobra.Command, cfg *config.Config, store *storage.SQLiteStorage, user *model.User, transactions []model.Transaction) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(transactions) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No transactions to import"))
		return nil
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		fmt.Fprintln(out, cli.FormatWarning("Dry run mode - not saving to database"))
		displayTransactionSummary(cmd, transactions)
		return nil
	}

	inserted, err := store.SaveTransactions(ctx, transactions)
	if err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}
	if skipped := len(transactions) - inserted; skipped > 0 {
		slog.Info("Skipped transactions already imported", "count", skipped)
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions for %s", inserted, user.Email)))
	displayTransactionSummary(cmd, transactions)

	categorize, _ := cmd.Flags().GetBool("categorize")
	if !categorize || inserted == 0 {
		return nil
	}
	return categorizeImported(cmd, cfg, store, transactions)
}

func displayTransactionSummary(cmd *cobra.Command, transactions []model.Transaction) {
	var debits, credits float64
	earliest, latest := transactions[0].Date, transactions[0].Date
	for _, txn := range transactions {
		if txn.Type == model.TypeCredit {
			credits += txn.Amount
		} else {
			debits += txn.Amount
		}
		if txn.Date.Before(earliest) {
			earliest = txn.Date
		}
		if txn.Date.After(latest) {
			latest = txn.Date
		}
	}

	body := fmt.Sprintf("  • Transactions: %d\n  • Date range: %s to %s\n  • Debits: %.2f\n  • Credits: %.2f",
		len(transactions),
		earliest.Format("Jan 2, 2006"),
		latest.Format("Jan 2, 2006"),
		debits,
		credits)
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Import Summary", body))
}
