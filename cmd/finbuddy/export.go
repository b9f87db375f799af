package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/finbuddy/internal/assistant"
	"github.com/Veraticus/finbuddy/internal/cli"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
	"github.com/Veraticus/finbuddy/internal/sheets"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export spending reports",
	}
	cmd.AddCommand(exportSheetsCmd())
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Export a spending report to Google Sheets",
		Long: `Write a report of totals, the category breakdown and every transaction in
the period to a Google spreadsheet. The sheet is replaced on each export.

Authenticate with a service account (sheets.service_account_path) or OAuth2
(sheets.client_id, sheets.client_secret and sheets.refresh_token).`,
		RunE: runExportSheets,
	}

	addUserFlag(cmd)
	cmd.Flags().String("since", "", "first day of the report (format: 2006-01-02)")
	cmd.Flags().String("until", "", "last day of the report (format: 2006-01-02, default today)")
	cmd.Flags().Int("days", 30, "report length in days when --since is not given")

	return cmd
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	since, until, err := reportPeriod(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Sheets.Validate(); err != nil {
		return fmt.Errorf("invalid Google Sheets configuration: %w", err)
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

	report, err := buildReport(cmd, store, user, since, until)
	if err != nil {
		return err
	}

	writer, err := sheets.NewWriter(ctx, cfg.Sheets, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	return exportReport(cmd, writer, report)
}

func reportPeriod(cmd *cobra.Command) (time.Time, time.Time, error) {
	sinceFlag, _ := cmd.Flags().GetString("since")
	untilFlag, _ := cmd.Flags().GetString("until")
	days, _ := cmd.Flags().GetInt("days")

	until := time.Now().UTC()
	if parsed, err := parseDay(untilFlag, "until"); err != nil {
		return time.Time{}, time.Time{}, err
	} else if parsed != nil {
		until = *parsed
	}
	// Include the whole last day.
	until = time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, time.UTC)

	if days <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("--days must be positive, got %d", days)
	}
	since := time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1-days)
	if parsed, err := parseDay(sinceFlag, "since"); err != nil {
		return time.Time{}, time.Time{}, err
	} else if parsed != nil {
		since = *parsed
	}

	if since.After(until) {
		return time.Time{}, time.Time{}, fmt.Errorf("--since %s is after --until %s",
			since.Format("2006-01-02"), until.Format("2006-01-02"))
	}
	return since, until, nil
}

func buildReport(cmd *cobra.Command, store service.Storage, user *model.User, since, until time.Time) (*sheets.Report, error) {
	ctx := cmd.Context()

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{
		UserID: user.ID,
		Since:  &since,
		Until:  &until,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	goals, err := store.GetGoals(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}

	return &sheets.Report{
		Since:        since,
		Until:        until,
		Owner:        user.FullName,
		Transactions: txns,
		Spending:     assistant.BuildSpendingSummary(txns),
		Budget:       assistant.BuildBudgetStatus(txns, goals),
	}, nil
}

func exportReport(cmd *cobra.Command, writer sheets.ReportWriter, report *sheets.Report) error {
	if len(report.Transactions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No transactions in this period; exporting an empty report"))
	}
	if err := writer.Write(cmd.Context(), report); err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to Google Sheets", len(report.Transactions))))
	return nil
}
