package main

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quayside/quayside/internal/auth"
	"github.com/quayside/quayside/internal/config"
	"github.com/quayside/quayside/internal/db"
	"github.com/quayside/quayside/internal/user"
)

func newTokenCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an API token for a user",
		Long: `Signs a fresh API token for the given user and stores it on the
user record. Prompts for the signing secret when the config does not
carry one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quayside.yaml", "path to Quayside config file")
	return cmd
}

func runToken(cmd *cobra.Command, configPath, userID string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	secret := cfg.Auth.TokenSecret
	if secret == "" {
		fmt.Fprint(out, "Token secret: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("read secret: %w", err)
		}
		secret = string(raw)
	}
	if secret == "" {
		return fmt.Errorf("a token secret is required")
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}

	u, err := user.Get(gormDB, userID)
	if err != nil {
		return err
	}

	token, err := auth.IssueToken(secret, u.ID)
	if err != nil {
		return err
	}
	if err := user.SetAPIToken(gormDB, u.ID, token); err != nil {
		return err
	}

	fmt.Fprintf(out, "Token for %s (%s):\n%s\n", u.ID, u.Email, token)
	return nil
}
