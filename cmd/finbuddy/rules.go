package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/finbuddy/internal/cli"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show or test the category rules",
		Long: `Print the keyword rules in the YAML format --rules accepts. Copy the output
to a file, edit it and pass it with --rules to change how transactions are
categorized.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := loadRules()
			if err != nil {
				return err
			}
			return table.WriteYAML(cmd.OutOrStdout())
		},
	}
	cmd.AddCommand(rulesTestCmd())
	return cmd
}

func rulesTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <description>",
		Short: "Show which rule, if any, matches a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadRules()
			if err != nil {
				return err
			}

			description := strings.Join(args, " ")
			result, ok := table.Match(description)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("No rule matches %q; the AI fallback would decide", description)))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%q → %s (%d%% confidence)", description, result.Category, result.Confidence)))
			return nil
		},
	}
}
