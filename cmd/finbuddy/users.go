package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/finbuddy/internal/auth"
	"github.com/Veraticus/finbuddy/internal/cli"
	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const minPasswordLength = 6

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(usersCreateCmd())
	cmd.AddCommand(usersShowCmd())
	return cmd
}

func usersCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Long: `Create a user account from the terminal. Anything not given as a flag is
asked for interactively; the password is always prompted for.`,
		RunE: runUsersCreate,
	}

	cmd.Flags().String("name", "", "full name")
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().Int("age", 0, "age in years")

	return cmd
}

func runUsersCreate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	reader := cli.NewLineReader(cmd.InOrStdin())

	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	age, _ := cmd.Flags().GetInt("age")

	var err error
	if name == "" {
		if name, err = reader.Prompt(ctx, out, "Full name: "); err != nil {
			return err
		}
	}
	if email == "" {
		if email, err = reader.Prompt(ctx, out, "Email: "); err != nil {
			return err
		}
	}
	for age == 0 {
		answer, promptErr := reader.Prompt(ctx, out, "Age: ")
		if promptErr != nil {
			return promptErr
		}
		if age, err = strconv.Atoi(answer); err != nil || age <= 0 {
			fmt.Fprintln(out, cli.FormatWarning("Age must be a whole number"))
			age = 0
		}
	}
	if age < 13 || age > 120 {
		return fmt.Errorf("%w: age must be between 13 and 120", common.ErrInvalidInput)
	}

	password, err := readPassword(ctx, cmd.InOrStdin(), reader, out)
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

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := &model.User{
		FullName:     strings.TrimSpace(name),
		Email:        strings.TrimSpace(email),
		Age:          age,
		PasswordHash: hash,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return common.NewUserError(fmt.Sprintf("user with email %s already exists", user.Email), err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	slog.Debug("Created user", "user_id", user.ID)
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created %s (%s) with ID %s", user.FullName, user.Email, user.ID)))
	return nil
}

// readPassword reads without echo from a terminal, or a plain line from piped input.
func readPassword(ctx context.Context, in io.Reader, reader *cli.LineReader, out io.Writer) (string, error) {
	var password string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		fmt.Fprint(out, cli.FormatPrompt("Password: "))
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	} else {
		line, err := reader.Prompt(ctx, out, "Password: ")
		if err != nil {
			return "", err
		}
		password = line
	}

	if len(password) < minPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", common.ErrInvalidInput, minPasswordLength)
	}
	return password, nil
}

func usersShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			user, err := userFromFlag(cmd, store)
			if err != nil {
				return err
			}

			body := fmt.Sprintf("  • ID: %s\n  • Email: %s\n  • Age: %d\n  • Currency: %s\n  • Timezone: %s\n  • Joined: %s",
				user.ID, user.Email, user.Age, user.Currency, user.Timezone, user.CreatedAt.Format("Jan 2, 2006"))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(user.FullName, body))
			return nil
		},
	}
	addUserFlag(cmd)
	return cmd
}
